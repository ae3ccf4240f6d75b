package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/barcode"
	"github.com/stockwise/fulfillment-service/internal/model"
	"github.com/stockwise/fulfillment-service/internal/order"
	"github.com/stockwise/fulfillment-service/internal/packing"
	"github.com/stockwise/fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

type session struct {
	mu     sync.Mutex
	id     string
	state  packing.State
	order  *model.Order
	counts map[string]int // item id -> scanned units
}

type packingUseCase struct {
	orders   order.Repository
	resolver barcode.Resolver
	logger   logger.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewPackingUseCase(orders order.Repository, resolver barcode.Resolver, log logger.Logger) packing.UseCase {
	return &packingUseCase{
		orders:   orders,
		resolver: resolver,
		logger:   log,
		sessions: make(map[string]*session),
	}
}

func (uc *packingUseCase) StartSession(ctx context.Context) (*packing.Snapshot, error) {
	s := &session{
		id:     uuid.New().String(),
		state:  packing.StateViewing,
		counts: make(map[string]int),
	}
	uc.mu.Lock()
	uc.sessions[s.id] = s
	uc.mu.Unlock()

	return snapshot(s), nil
}

func (uc *packingUseCase) ScanLabel(ctx context.Context, sessionID, code string) (*packing.Snapshot, error) {
	s, err := uc.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != packing.StateViewing {
		return nil, apperr.Conflictf("session %s already holds an order", sessionID)
	}

	matches, err := uc.orders.FindDispatchedByLabel(ctx, code)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, apperr.NotFoundf("no dispatched order for label %s", code)
	case 1:
	default:
		return nil, apperr.ErrMultipleOrdersMatched
	}

	s.order = &matches[0]
	s.counts = make(map[string]int)
	s.state = packing.StateLabelScanned
	return snapshot(s), nil
}

func (uc *packingUseCase) ScanItem(ctx context.Context, sessionID, code string) (*packing.Snapshot, error) {
	s, err := uc.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != packing.StateLabelScanned && s.state != packing.StatePacking {
		return nil, apperr.Conflictf("session %s is not packing", sessionID)
	}

	item, err := uc.matchLine(ctx, s, code)
	if err != nil {
		return nil, err
	}

	return uc.countUnit(s, item)
}

func (uc *packingUseCase) ConfirmUnit(ctx context.Context, sessionID, sku string) (*packing.Snapshot, error) {
	s, err := uc.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != packing.StateLabelScanned && s.state != packing.StatePacking {
		return nil, apperr.Conflictf("session %s is not packing", sessionID)
	}

	item := openLineBySKU(s, sku)
	if item == nil {
		if lineExistsBySKU(s, sku) {
			return nil, apperr.ErrQuantityExceeded
		}
		return nil, apperr.ErrItemNotInOrder
	}

	return uc.countUnit(s, item)
}

func (uc *packingUseCase) Confirm(ctx context.Context, sessionID, packedBy string) (*packing.Snapshot, error) {
	s, err := uc.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != packing.StateConfirming {
		return nil, apperr.Conflictf("session %s is not awaiting confirmation", sessionID)
	}

	now := time.Now()
	if err := uc.orders.MarkPacked(ctx, s.order.ID, packedBy, now, false); err != nil {
		return nil, err
	}

	uc.logger.Info("order packed",
		zap.String("order_id", s.order.ID),
		zap.String("order_number", s.order.OrderNumber),
		zap.String("packed_by", packedBy))

	s.state = packing.StatePacked
	return snapshot(s), nil
}

func (uc *packingUseCase) Cancel(ctx context.Context, sessionID string) (*packing.Snapshot, error) {
	s, err := uc.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == packing.StatePacked {
		return nil, apperr.Conflictf("session %s already packed its order", sessionID)
	}

	s.order = nil
	s.counts = make(map[string]int)
	s.state = packing.StateViewing
	return snapshot(s), nil
}

func (uc *packingUseCase) MarkPackedManually(ctx context.Context, orderID, packedBy string) error {
	ord, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if ord == nil {
		return apperr.NotFoundf("order %s", orderID)
	}
	if ord.Status != model.OrderDispatched {
		return apperr.Conflictf("order %s is not dispatched", orderID)
	}

	if err := uc.orders.MarkPacked(ctx, orderID, packedBy, time.Now(), true); err != nil {
		return err
	}

	uc.logger.Warn("order marked packed without scan verification",
		zap.String("order_id", orderID),
		zap.String("packed_by", packedBy))
	return nil
}

func (uc *packingUseCase) session(id string) (*session, error) {
	uc.mu.RLock()
	s, ok := uc.sessions[id]
	uc.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFoundf("packing session %s", id)
	}
	return s, nil
}

// matchLine finds the order line a scanned code belongs to: an item barcode, a
// barcode recorded at dispatch, or a bare SKU line item.
func (uc *packingUseCase) matchLine(ctx context.Context, s *session, code string) (*model.OrderItem, error) {
	// Direct item barcode.
	for i := range s.order.Items {
		item := &s.order.Items[i]
		if item.Barcode != nil && *item.Barcode == code {
			if s.counts[item.ID] >= item.Quantity {
				return nil, apperr.ErrQuantityExceeded
			}
			return item, nil
		}
	}

	// Barcode recorded at dispatch time: resolve to a SKU, then match lines.
	for _, b := range s.order.DispatchedBarcodes {
		if b != code {
			continue
		}
		sku, err := uc.resolver.Resolve(ctx, code)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, apperr.ErrItemNotInOrder
			}
			return nil, err
		}
		if item := openLineBySKU(s, sku); item != nil {
			return item, nil
		}
		if lineExistsBySKU(s, sku) {
			return nil, apperr.ErrQuantityExceeded
		}
		return nil, apperr.ErrItemNotInOrder
	}

	// Bare SKU covers items without individual barcodes.
	if item := openLineBySKU(s, code); item != nil {
		return item, nil
	}
	if lineExistsBySKU(s, code) {
		return nil, apperr.ErrQuantityExceeded
	}
	return nil, apperr.ErrItemNotInOrder
}

// countUnit increments under the session mutex, so rapid duplicate scans from
// several input devices cannot pass the ceiling.
func (uc *packingUseCase) countUnit(s *session, item *model.OrderItem) (*packing.Snapshot, error) {
	if s.counts[item.ID] >= item.Quantity {
		return nil, apperr.ErrQuantityExceeded
	}
	s.counts[item.ID]++
	s.state = packing.StatePacking

	if allLinesFull(s) {
		s.state = packing.StateConfirming
	}
	return snapshot(s), nil
}

func openLineBySKU(s *session, sku string) *model.OrderItem {
	for i := range s.order.Items {
		item := &s.order.Items[i]
		if item.SKU == sku && s.counts[item.ID] < item.Quantity {
			return item
		}
	}
	return nil
}

func lineExistsBySKU(s *session, sku string) bool {
	for i := range s.order.Items {
		if s.order.Items[i].SKU == sku {
			return true
		}
	}
	return false
}

func allLinesFull(s *session) bool {
	for _, item := range s.order.Items {
		if s.counts[item.ID] < item.Quantity {
			return false
		}
	}
	return true
}

func snapshot(s *session) *packing.Snapshot {
	snap := &packing.Snapshot{
		SessionID: s.id,
		State:     s.state,
	}
	if s.order != nil {
		snap.OrderID = s.order.ID
		snap.OrderNumber = s.order.OrderNumber
		for _, item := range s.order.Items {
			snap.Lines = append(snap.Lines, packing.LineProgress{
				ItemID:   item.ID,
				SKU:      item.SKU,
				Required: item.Quantity,
				Scanned:  s.counts[item.ID],
			})
		}
	}
	return snap
}
