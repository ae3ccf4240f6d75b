package order

import (
	"context"
	"time"

	"github.com/stockwise/fulfillment-service/internal/model"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*model.Order, error)

	// FindDispatchedByLabel returns every DISPATCHED order whose shipping
	// label matches; callers decide what more than one match means.
	FindDispatchedByLabel(ctx context.Context, label string) ([]model.Order, error)

	// MarkPacked persists the terminal packing state. manual distinguishes
	// the scan-verified flow from the no-scan bypass in the audit notes.
	MarkPacked(ctx context.Context, orderID, packedBy string, at time.Time, manual bool) error
}
