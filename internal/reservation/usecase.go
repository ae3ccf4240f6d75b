package reservation

import (
	"context"

	"github.com/stockwise/fulfillment-service/internal/model"
)

// ATP is the answer to "how much of this SKU can still be promised". Reserved
// sums ACTIVE holds channel-agnostically; a reservation from any channel
// reduces what every channel may sell. Effective = max(0, OnHand-Reserved-Buffer).
type ATP struct {
	SKU       string `json:"sku"`
	OnHand    int    `json:"on_hand"`
	Reserved  int    `json:"reserved"`
	Buffer    int    `json:"buffer"`
	Effective int    `json:"effective"`
}

// BufferSource resolves the per-(account,SKU) safety margin. found=false means
// no listing-specific buffer is configured and the default applies.
type BufferSource interface {
	Buffer(ctx context.Context, accountID, sku string) (buffer int, found bool, err error)
}

type UseCase interface {
	// Reserve is idempotent per (orderID, sku): an existing ACTIVE hold is
	// returned unchanged.
	Reserve(ctx context.Context, orderID, sku string, quantity int) (*model.Reservation, error)

	// Clear transitions ACTIVE -> CLEARED. Clearing an already-cleared
	// reservation is a no-op.
	Clear(ctx context.Context, reservationID string) error

	// ClearForOrder clears every ACTIVE hold of an order (cancellation path).
	ClearForOrder(ctx context.Context, orderID string) error

	// ClearForOrderItem clears the hold backing one (order, sku) line.
	ClearForOrderItem(ctx context.Context, orderID, sku string) error

	// ComputeATP is a pure read; unknown SKUs yield zeros, not an error.
	ComputeATP(ctx context.Context, sku, accountID string) (*ATP, error)
}
