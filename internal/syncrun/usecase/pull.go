package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/channel"
	"github.com/stockwise/fulfillment-service/internal/model"
	"go.uber.org/zap"
)

func (uc *syncUseCase) RunOrderPull(ctx context.Context, accountID string) (*model.ImportRun, error) {
	account, err := uc.chRepo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Enabled || !account.UseOrders {
		cause := apperr.Validationf("account %s is not enabled for order pulls", accountID)
		return uc.errorRun(ctx, model.SourceOrdersPull, accountID, cause), cause
	}

	unlock, err := uc.lockRun(ctx, accountID, "orders")
	if err != nil {
		return nil, err
	}
	defer unlock()

	startedAt := time.Now()

	token, err := uc.creds.Token(ctx, accountID)
	if err != nil {
		cause := apperr.Upstreamf("no valid token for account %s: %v", accountID, err)
		return uc.errorRun(ctx, model.SourceOrdersPull, accountID, cause), cause
	}

	orders, err := uc.client.PullOrders(ctx, token, sinceOf(account.LastOrdersSince))
	if err != nil {
		cause := apperr.Upstreamf("pull orders for account %s: %v", accountID, err)
		return uc.errorRun(ctx, model.SourceOrdersPull, accountID, cause), cause
	}

	created, skipped := 0, 0
	var details []string

	for _, ext := range orders {
		switch err := uc.importOrder(ctx, accountID, ext); {
		case err == nil:
			created++
		case errors.Is(err, apperr.ErrConflict):
			skipped++
		default:
			details = append(details, fmt.Sprintf("order %s: %v", ext.ExternalID, err))
			uc.logger.Error("failed to import external order",
				zap.String("account_id", accountID),
				zap.String("external_id", ext.ExternalID),
				zap.Error(err))
		}
	}

	// The cursor advances even when some orders errored: a permanently failing
	// order must not block all future pulls. Its failure lives in the run record.
	if err := uc.chRepo.AdvanceOrdersCursor(ctx, accountID, startedAt); err != nil {
		details = append(details, fmt.Sprintf("advance cursor: %v", err))
	}

	run := newRun(model.SourceOrdersPull, accountID, len(orders), created, 0, skipped, details)
	uc.saveRun(ctx, run)

	uc.logger.Info("order pull finished",
		zap.String("account_id", accountID),
		zap.Int("rows", run.RowsTotal),
		zap.Int("created", run.Created),
		zap.Int("skipped", run.Skipped),
		zap.Int("errors", run.Errors))

	return run, nil
}

// importOrder is at-most-once per (account, external id): the pre-check handles
// normal re-pulls cheaply, the unique index catches races, and everything the
// order brings is created in one transaction.
func (uc *syncUseCase) importOrder(ctx context.Context, accountID string, ext channel.ExternalOrder) error {
	existing, err := uc.chRepo.LookupOrderIndex(ctx, accountID, ext.ExternalID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflictf("external order %s already imported", ext.ExternalID)
	}

	if ext.OrderNumber == "" {
		return apperr.Validationf("external order %s has no order number", ext.ExternalID)
	}

	now := time.Now()
	ord := &model.Order{
		ID:          uuid.New().String(),
		OrderNumber: ext.OrderNumber,
		Status:      model.OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	reservations := make([]model.Reservation, 0, len(ext.Items))
	for _, item := range ext.Items {
		if item.SKU == "" || item.Quantity <= 0 {
			return apperr.Validationf("external order %s has a malformed line", ext.ExternalID)
		}
		var barcode *string
		if item.Barcode != "" {
			b := item.Barcode
			barcode = &b
		}
		ord.Items = append(ord.Items, model.OrderItem{
			ID:       uuid.New().String(),
			OrderID:  ord.ID,
			SKU:      item.SKU,
			Quantity: item.Quantity,
			Barcode:  barcode,
		})
		reservations = append(reservations, model.Reservation{
			ID:        uuid.New().String(),
			OrderID:   ord.ID,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			Status:    model.ReservationActive,
			CreatedAt: now,
		})
	}

	idx := &model.ExternalOrderIndex{
		AccountID:  accountID,
		ExternalID: ext.ExternalID,
		LocalID:    ord.ID,
		CreatedAt:  now,
	}

	return uc.repo.ImportOrder(ctx, ord, reservations, idx)
}

func (uc *syncUseCase) RunInventoryPull(ctx context.Context, accountID string) (*model.ImportRun, error) {
	account, err := uc.chRepo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Enabled || !account.UseInventory {
		cause := apperr.Validationf("account %s is not enabled for inventory pulls", accountID)
		return uc.errorRun(ctx, model.SourceInventoryPull, accountID, cause), cause
	}

	unlock, err := uc.lockRun(ctx, accountID, "inventory")
	if err != nil {
		return nil, err
	}
	defer unlock()

	startedAt := time.Now()

	token, err := uc.creds.Token(ctx, accountID)
	if err != nil {
		cause := apperr.Upstreamf("no valid token for account %s: %v", accountID, err)
		return uc.errorRun(ctx, model.SourceInventoryPull, accountID, cause), cause
	}

	items, err := uc.client.PullInventory(ctx, token, sinceOf(account.LastInventorySince))
	if err != nil {
		cause := apperr.Upstreamf("pull inventory for account %s: %v", accountID, err)
		return uc.errorRun(ctx, model.SourceInventoryPull, accountID, cause), cause
	}

	created, updated := 0, 0
	var details []string

	for _, item := range items {
		isNew, err := uc.importInventoryItem(ctx, accountID, item)
		if err != nil {
			details = append(details, fmt.Sprintf("item %s: %v", item.ExternalID, err))
			continue
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}

	if err := uc.chRepo.AdvanceInventoryCursor(ctx, accountID, startedAt); err != nil {
		details = append(details, fmt.Sprintf("advance cursor: %v", err))
	}

	run := newRun(model.SourceInventoryPull, accountID, len(items), created, updated, 0, details)
	uc.saveRun(ctx, run)
	return run, nil
}

// importInventoryItem maps an external catalog item onto a local SKU: a dedup
// index row on first sight, and a listing upsert so pushes know the external
// identity. No reservations are involved on this path.
func (uc *syncUseCase) importInventoryItem(ctx context.Context, accountID string, item channel.ExternalInventoryItem) (bool, error) {
	if item.SKU == "" {
		return false, apperr.Validationf("external item %s has no sku", item.ExternalID)
	}

	now := time.Now()
	isNew := false

	existing, err := uc.chRepo.LookupInventoryIndex(ctx, accountID, item.ExternalID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		err := uc.chRepo.InsertInventoryIndex(ctx, &model.ExternalInventoryIndex{
			AccountID:  accountID,
			ExternalID: item.ExternalID,
			SKU:        item.SKU,
			CreatedAt:  now,
		})
		if err != nil && !errors.Is(err, apperr.ErrConflict) {
			return false, err
		}
		isNew = err == nil
	}

	err = uc.chRepo.UpsertListing(ctx, &model.ChannelListing{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		SKU:         item.SKU,
		ExternalSKU: item.ExternalID,
		UpdatedAt:   now,
	})
	return isNew, err
}
