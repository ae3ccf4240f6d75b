package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/inventory"
	"github.com/stockwise/fulfillment-service/internal/inventory/dto"
	"github.com/stockwise/fulfillment-service/internal/model"
	"github.com/stockwise/fulfillment-service/pkg/cache"
	"github.com/stockwise/fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo   inventory.Repository
	cache  *cache.RedisClient
	logger logger.Logger
}

func NewInventoryUseCase(repo inventory.Repository, cache *cache.RedisClient, log logger.Logger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *inventoryUseCase) OnHand(ctx context.Context, sku string) (int, error) {
	return uc.repo.GetOnHand(ctx, sku)
}

func (uc *inventoryUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.InventoryRecord, error) {
	if input.SKU == "" || input.Location == "" {
		return nil, apperr.Validationf("sku and location are required")
	}

	unlock, err := uc.lockRecord(ctx, input.SKU, input.Location)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, mv, err := uc.buildAdjustment(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.AdjustWithMovement(ctx, rec, mv); err != nil {
		return nil, err
	}

	return rec, nil
}

// buildAdjustment loads the current row and produces the updated record plus
// the movement describing the change. Callers hold the row lock.
func (uc *inventoryUseCase) buildAdjustment(ctx context.Context, input *dto.AdjustStockInput) (*model.InventoryRecord, *model.StockMovement, error) {
	rec, err := uc.repo.GetRecord(ctx, input.SKU, input.Location)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if rec == nil {
		rec = &model.InventoryRecord{
			ID:       uuid.New().String(),
			SKU:      input.SKU,
			Location: input.Location,
			OnHand:   0,
		}
	}

	before := rec.OnHand
	rec.OnHand += input.QuantityChange
	rec.UpdatedAt = now

	if rec.OnHand < 0 {
		return nil, nil, apperr.Validationf("insufficient stock for %s at %s", input.SKU, input.Location)
	}

	var refID *string
	if input.ReferenceID != "" {
		refID = &input.ReferenceID
	}
	var refType *string
	if input.ReferenceType != "" {
		refType = &input.ReferenceType
	}
	var createdBy *string
	if input.UserID != "" {
		createdBy = &input.UserID
	}

	movementType := input.MovementType
	if movementType == "" {
		movementType = "adjustment"
	}

	mv := &model.StockMovement{
		ID:             uuid.New().String(),
		SKU:            input.SKU,
		Location:       input.Location,
		MovementType:   movementType,
		QuantityChange: input.QuantityChange,
		QuantityBefore: before,
		QuantityAfter:  rec.OnHand,
		ReferenceType:  refType,
		ReferenceID:    refID,
		Notes:          input.Reason,
		CreatedBy:      createdBy,
		CreatedAt:      now,
	}

	return rec, mv, nil
}

func (uc *inventoryUseCase) StockIn(ctx context.Context, input *dto.StockInInput) (*model.PendingPlacement, error) {
	if input.Quantity <= 0 {
		return nil, apperr.Validationf("quantity must be positive")
	}
	if input.Barcode == "" || input.SKU == "" {
		return nil, apperr.Validationf("barcode and sku are required")
	}

	p := &model.PendingPlacement{
		ID:             uuid.New().String(),
		Barcode:        input.Barcode,
		SKU:            input.SKU,
		TargetLocation: input.TargetLocation,
		Quantity:       input.Quantity,
		CreatedAt:      time.Now(),
	}
	if err := uc.repo.CreatePlacement(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ConfirmPlacement converts a pending placement into an on-hand adjustment and
// removes it, in one repository transaction. A failed confirm leaves both the
// placement and the ledger untouched, so retrying is always safe and never
// double-counts.
func (uc *inventoryUseCase) ConfirmPlacement(ctx context.Context, barcode, userID string) (*model.InventoryRecord, error) {
	p, err := uc.repo.GetPlacementByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFoundf("no pending placement for barcode %s", barcode)
	}

	unlock, err := uc.lockRecord(ctx, p.SKU, p.TargetLocation)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, mv, err := uc.buildAdjustment(ctx, &dto.AdjustStockInput{
		SKU:            p.SKU,
		Location:       p.TargetLocation,
		QuantityChange: p.Quantity,
		MovementType:   "stock_in",
		Reason:         "placement confirmed",
		ReferenceID:    p.ID,
		ReferenceType:  "placement",
		UserID:         userID,
	})
	if err != nil {
		return nil, err
	}

	if err := uc.repo.ConfirmPlacement(ctx, p.ID, rec, mv); err != nil {
		uc.logger.Error("failed to confirm placement",
			zap.String("placement_id", p.ID), zap.Error(err))
		return nil, err
	}

	return rec, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, error) {
	return uc.repo.ListMovements(ctx, f)
}

// lockRecord serializes writers on one (sku, location) row. Without redis the
// database upsert still keeps the row consistent, so a nil cache is allowed.
func (uc *inventoryUseCase) lockRecord(ctx context.Context, sku, location string) (func(), error) {
	if uc.cache == nil {
		return func() {}, nil
	}

	lockKey := fmt.Sprintf("lock:inventory:%s:%s", sku, location)
	lockValue := uuid.New().String()

	acquired := false
	for i := 0; i < 3; i++ {
		ok, err := uc.cache.AcquireLock(ctx, lockKey, lockValue, 5*time.Second)
		if err != nil {
			uc.logger.Error("failed to acquire inventory lock", zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !acquired {
		return nil, apperr.Conflictf("inventory row busy for %s at %s", sku, location)
	}

	return func() {
		if err := uc.cache.ReleaseLock(ctx, lockKey, lockValue); err != nil {
			uc.logger.Error("failed to release inventory lock", zap.Error(err))
		}
	}, nil
}
