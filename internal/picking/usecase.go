package picking

import (
	"context"

	"github.com/stockwise/fulfillment-service/internal/model"
	"github.com/stockwise/fulfillment-service/internal/picking/dto"
)

type UseCase interface {
	CreateList(ctx context.Context, input *dto.CreateListInput) (*model.PickingList, error)
	GetList(ctx context.Context, listID string) (*model.PickingList, []model.PickingTask, error)

	// Scan resolves the code to a SKU and counts one unit against the first
	// open matching task. Fails apperr.ErrNoMatchingTask when nothing in the
	// list wants the SKU and apperr.ErrQuantityExceeded when the matched task
	// is already full; neither failure mutates anything.
	Scan(ctx context.Context, listID, code string) (*dto.ScanResult, error)

	// Done reports the derived completion condition: every task's picked
	// quantity has reached its requirement. There is no terminal list state.
	Done(ctx context.Context, listID string) (bool, error)
}
