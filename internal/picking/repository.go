package picking

import (
	"context"

	"github.com/stockwise/fulfillment-service/internal/model"
)

type Repository interface {
	CreateList(ctx context.Context, list *model.PickingList, tasks []model.PickingTask) error
	GetList(ctx context.Context, id string) (*model.PickingList, error)
	ListTasks(ctx context.Context, listID string) ([]model.PickingTask, error)
	GetTask(ctx context.Context, id string) (*model.PickingTask, error)

	// FirstOpenTaskBySKU returns the first task in creation order that still
	// accepts scans for the SKU, or nil. The position column makes the FIFO
	// tie-break deterministic when a list holds the same SKU more than once.
	FirstOpenTaskBySKU(ctx context.Context, listID, sku string) (*model.PickingTask, error)

	// IncrementPicked adds one to picked_quantity only while it is below
	// required_quantity. A false return means the ceiling was already reached,
	// which absorbs duplicate scans from racing input devices.
	IncrementPicked(ctx context.Context, taskID string) (bool, error)

	MarkTaskCompleted(ctx context.Context, taskID string) error
}
