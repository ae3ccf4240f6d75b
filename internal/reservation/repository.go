package reservation

import (
	"context"
	"time"

	"github.com/stockwise/fulfillment-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetByOrderAndSKU(ctx context.Context, orderID, sku string) (*model.Reservation, error)
	ListActiveByOrder(ctx context.Context, orderID string) ([]model.Reservation, error)

	// SumActiveBySKU backs the ATP read path: total ACTIVE holds for a SKU
	// across all orders and channels.
	SumActiveBySKU(ctx context.Context, sku string) (int, error)

	// MarkCleared flips ACTIVE -> CLEARED and reports whether this call did
	// the transition. A false return means the row was already cleared.
	MarkCleared(ctx context.Context, id string, at time.Time) (bool, error)
}
