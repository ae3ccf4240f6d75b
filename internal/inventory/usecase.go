package inventory

import (
	"context"

	"github.com/stockwise/fulfillment-service/internal/inventory/dto"
	"github.com/stockwise/fulfillment-service/internal/model"
)

type UseCase interface {
	OnHand(ctx context.Context, sku string) (int, error)
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.InventoryRecord, error)
	StockIn(ctx context.Context, input *dto.StockInInput) (*model.PendingPlacement, error)
	ConfirmPlacement(ctx context.Context, barcode, userID string) (*model.InventoryRecord, error)
	ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, error)
}
