package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/inventory"
	"github.com/stockwise/fulfillment-service/internal/model"
	"github.com/stockwise/fulfillment-service/internal/reservation"
	"github.com/stockwise/fulfillment-service/pkg/cache"
	"github.com/stockwise/fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

const atpCacheTTL = 30 * time.Second

type Config struct {
	// DefaultBuffer applies when no listing-specific buffer is configured.
	DefaultBuffer int
}

type reservationUseCase struct {
	repo    reservation.Repository
	invRepo inventory.Repository
	buffers reservation.BufferSource
	cache   *cache.RedisClient
	logger  logger.Logger
	cfg     Config
}

func NewReservationUseCase(
	repo reservation.Repository,
	invRepo inventory.Repository,
	buffers reservation.BufferSource,
	cache *cache.RedisClient,
	log logger.Logger,
	cfg Config,
) reservation.UseCase {
	return &reservationUseCase{
		repo:    repo,
		invRepo: invRepo,
		buffers: buffers,
		cache:   cache,
		logger:  log,
		cfg:     cfg,
	}
}

func (uc *reservationUseCase) Reserve(ctx context.Context, orderID, sku string, quantity int) (*model.Reservation, error) {
	if quantity <= 0 {
		return nil, apperr.Validationf("reservation quantity must be positive")
	}

	existing, err := uc.repo.GetByOrderAndSKU(ctx, orderID, sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	onHand, err := uc.invRepo.GetOnHand(ctx, sku)
	if err != nil {
		return nil, err
	}
	reserved, err := uc.repo.SumActiveBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if reserved+quantity > onHand {
		return nil, apperr.Conflictf("reserving %d of %s would exceed on-hand %d (reserved %d)",
			quantity, sku, onHand, reserved)
	}

	res := &model.Reservation{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		SKU:       sku,
		Quantity:  quantity,
		Status:    model.ReservationActive,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.Create(ctx, res); err != nil {
		return nil, err
	}

	uc.invalidateATPCache(ctx, sku)
	return res, nil
}

func (uc *reservationUseCase) Clear(ctx context.Context, reservationID string) error {
	res, err := uc.repo.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if res == nil {
		return apperr.NotFoundf("reservation %s", reservationID)
	}
	if res.Status == model.ReservationCleared {
		return nil
	}

	cleared, err := uc.repo.MarkCleared(ctx, reservationID, time.Now())
	if err != nil {
		return err
	}
	if cleared {
		uc.invalidateATPCache(ctx, res.SKU)
	}
	return nil
}

func (uc *reservationUseCase) ClearForOrder(ctx context.Context, orderID string) error {
	active, err := uc.repo.ListActiveByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, res := range active {
		if _, err := uc.repo.MarkCleared(ctx, res.ID, now); err != nil {
			return err
		}
		uc.invalidateATPCache(ctx, res.SKU)
	}
	return nil
}

func (uc *reservationUseCase) ClearForOrderItem(ctx context.Context, orderID, sku string) error {
	res, err := uc.repo.GetByOrderAndSKU(ctx, orderID, sku)
	if err != nil {
		return err
	}
	if res == nil {
		return nil // order line never had a hold; nothing to clear
	}
	return uc.Clear(ctx, res.ID)
}

func (uc *reservationUseCase) ComputeATP(ctx context.Context, sku, accountID string) (*reservation.ATP, error) {
	cacheKey := fmt.Sprintf("atp:%s:%s", sku, accountID)
	if uc.cache != nil {
		if val, err := uc.cache.Client.Get(ctx, cacheKey).Result(); err == nil {
			var atp reservation.ATP
			if err := json.Unmarshal([]byte(val), &atp); err == nil {
				return &atp, nil
			}
		}
	}

	onHand, err := uc.invRepo.GetOnHand(ctx, sku)
	if err != nil {
		return nil, err
	}
	reserved, err := uc.repo.SumActiveBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	buffer := uc.cfg.DefaultBuffer
	if uc.buffers != nil && accountID != "" {
		b, found, err := uc.buffers.Buffer(ctx, accountID, sku)
		if err != nil {
			return nil, err
		}
		if found {
			buffer = b
		}
	}

	effective := onHand - reserved - buffer
	if effective < 0 {
		effective = 0
	}

	atp := &reservation.ATP{
		SKU:       sku,
		OnHand:    onHand,
		Reserved:  reserved,
		Buffer:    buffer,
		Effective: effective,
	}

	if uc.cache != nil {
		if data, err := json.Marshal(atp); err == nil {
			uc.cache.Client.Set(ctx, cacheKey, data, atpCacheTTL)
		}
	}
	return atp, nil
}

func (uc *reservationUseCase) invalidateATPCache(ctx context.Context, sku string) {
	if uc.cache == nil {
		return
	}
	pattern := fmt.Sprintf("atp:%s:*", sku)
	keys, err := uc.cache.Client.Keys(ctx, pattern).Result()
	if err != nil {
		uc.logger.Error("failed to scan atp cache keys", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		uc.cache.Client.Del(ctx, keys...)
	}
}
