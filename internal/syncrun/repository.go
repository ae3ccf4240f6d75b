package syncrun

import (
	"context"

	"github.com/stockwise/fulfillment-service/internal/model"
)

type Repository interface {
	// ImportOrder creates the local order, its line items, one reservation per
	// line, and the dedup index row in a single transaction. A crash mid-import
	// must never leave a reservation without an index entry. A unique-index
	// violation (concurrent import of the same external order) surfaces as
	// apperr.ErrConflict.
	ImportOrder(ctx context.Context, ord *model.Order, reservations []model.Reservation, idx *model.ExternalOrderIndex) error

	CreateRun(ctx context.Context, run *model.ImportRun) error
	ListRuns(ctx context.Context, sourceRef string, limit int) ([]model.ImportRun, error)
}
