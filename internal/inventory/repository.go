package inventory

import (
	"context"

	"github.com/stockwise/fulfillment-service/internal/inventory/dto"
	"github.com/stockwise/fulfillment-service/internal/model"
)

type Repository interface {
	// Ledger reads
	GetRecord(ctx context.Context, sku, location string) (*model.InventoryRecord, error)
	GetOnHand(ctx context.Context, sku string) (int, error)

	// Ledger writes: record upsert and movement row in one transaction.
	AdjustWithMovement(ctx context.Context, rec *model.InventoryRecord, mv *model.StockMovement) error

	// Movements / audit
	ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, error)

	// Stock-in placements
	CreatePlacement(ctx context.Context, p *model.PendingPlacement) error
	GetPlacementByBarcode(ctx context.Context, barcode string) (*model.PendingPlacement, error)

	// ConfirmPlacement commits the record upsert, the movement row, and the
	// placement delete in one transaction. Either the stock is counted and the
	// placement gone, or neither happened and a retry starts clean.
	ConfirmPlacement(ctx context.Context, placementID string, rec *model.InventoryRecord, mv *model.StockMovement) error
}
