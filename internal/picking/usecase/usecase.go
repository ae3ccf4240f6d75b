package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/barcode"
	"github.com/stockwise/fulfillment-service/internal/inventory"
	invdto "github.com/stockwise/fulfillment-service/internal/inventory/dto"
	"github.com/stockwise/fulfillment-service/internal/model"
	"github.com/stockwise/fulfillment-service/internal/picking"
	"github.com/stockwise/fulfillment-service/internal/picking/dto"
	"github.com/stockwise/fulfillment-service/internal/reservation"
	"github.com/stockwise/fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

type pickingUseCase struct {
	repo     picking.Repository
	resolver barcode.Resolver
	resUC    reservation.UseCase
	invUC    inventory.UseCase
	logger   logger.Logger
}

func NewPickingUseCase(
	repo picking.Repository,
	resolver barcode.Resolver,
	resUC reservation.UseCase,
	invUC inventory.UseCase,
	log logger.Logger,
) picking.UseCase {
	return &pickingUseCase{
		repo:     repo,
		resolver: resolver,
		resUC:    resUC,
		invUC:    invUC,
		logger:   log,
	}
}

func (uc *pickingUseCase) CreateList(ctx context.Context, input *dto.CreateListInput) (*model.PickingList, error) {
	if len(input.Tasks) == 0 {
		return nil, apperr.Validationf("picking list needs at least one task")
	}

	now := time.Now()
	list := &model.PickingList{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Status:    "ACTIVE",
		CreatedAt: now,
	}

	tasks := make([]model.PickingTask, 0, len(input.Tasks))
	for i, t := range input.Tasks {
		if t.SKU == "" || t.RequiredQuantity <= 0 {
			return nil, apperr.Validationf("task %d is malformed", i)
		}
		var itemName *string
		if t.ItemName != "" {
			n := t.ItemName
			itemName = &n
		}
		var orderID *string
		if t.OrderID != "" {
			o := t.OrderID
			orderID = &o
		}
		var location *string
		if t.Location != "" {
			l := t.Location
			location = &l
		}
		tasks = append(tasks, model.PickingTask{
			ID:               uuid.New().String(),
			ListID:           list.ID,
			SKU:              t.SKU,
			ItemName:         itemName,
			OrderID:          orderID,
			Location:         location,
			RequiredQuantity: t.RequiredQuantity,
			PickedQuantity:   0,
			Status:           model.TaskPending,
			Position:         i,
			CreatedAt:        now,
		})
	}

	if err := uc.repo.CreateList(ctx, list, tasks); err != nil {
		return nil, err
	}
	return list, nil
}

func (uc *pickingUseCase) GetList(ctx context.Context, listID string) (*model.PickingList, []model.PickingTask, error) {
	list, err := uc.repo.GetList(ctx, listID)
	if err != nil {
		return nil, nil, err
	}
	if list == nil {
		return nil, nil, apperr.NotFoundf("picking list %s", listID)
	}
	tasks, err := uc.repo.ListTasks(ctx, listID)
	if err != nil {
		return nil, nil, err
	}
	return list, tasks, nil
}

func (uc *pickingUseCase) Scan(ctx context.Context, listID, code string) (*dto.ScanResult, error) {
	sku, err := uc.resolver.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNoMatchingTask
		}
		return nil, err
	}

	task, err := uc.repo.FirstOpenTaskBySKU(ctx, listID, sku)
	if err != nil {
		return nil, err
	}
	if task == nil {
		// Either the SKU is not on the list at all, or every task for it is
		// already full. A full task means one more scan would overshoot.
		if full, err := uc.hasFullTaskForSKU(ctx, listID, sku); err != nil {
			return nil, err
		} else if full {
			return nil, apperr.ErrQuantityExceeded
		}
		return nil, apperr.ErrNoMatchingTask
	}

	ok, err := uc.repo.IncrementPicked(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrQuantityExceeded
	}

	// Re-read for the authoritative counter; concurrent scanners may have
	// landed on the same task between the select and the increment.
	task, err = uc.repo.GetTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperr.NotFoundf("picking task vanished after increment")
	}

	// The unit physically left its bin; tasks that carry a source location
	// consume on-hand right away.
	if task.Location != nil {
		_, err := uc.invUC.AdjustStock(ctx, &invdto.AdjustStockInput{
			SKU:            task.SKU,
			Location:       *task.Location,
			QuantityChange: -1,
			MovementType:   "pick",
			Reason:         "picked",
			ReferenceID:    task.ID,
			ReferenceType:  "picking_task",
		})
		if err != nil {
			uc.logger.Error("failed to deduct picked unit from ledger",
				zap.String("task_id", task.ID),
				zap.String("sku", task.SKU),
				zap.Error(err))
		}
	}

	completed := task.PickedQuantity >= task.RequiredQuantity
	if completed {
		if err := uc.repo.MarkTaskCompleted(ctx, task.ID); err != nil {
			return nil, err
		}
		task.Status = model.TaskCompleted

		if task.OrderID != nil {
			if err := uc.resUC.ClearForOrderItem(ctx, *task.OrderID, task.SKU); err != nil {
				// The pick itself stands; the hold is cleared on order
				// fulfilment at the latest.
				uc.logger.Error("failed to clear reservation after pick",
					zap.String("order_id", *task.OrderID),
					zap.String("sku", task.SKU),
					zap.Error(err))
			}
		}
	}

	done, err := uc.Done(ctx, listID)
	if err != nil {
		return nil, err
	}

	return &dto.ScanResult{
		TaskID:         task.ID,
		SKU:            task.SKU,
		PickedQuantity: task.PickedQuantity,
		Required:       task.RequiredQuantity,
		TaskCompleted:  completed,
		ListDone:       done,
	}, nil
}

func (uc *pickingUseCase) Done(ctx context.Context, listID string) (bool, error) {
	tasks, err := uc.repo.ListTasks(ctx, listID)
	if err != nil {
		return false, err
	}
	if len(tasks) == 0 {
		return false, nil
	}
	for _, t := range tasks {
		if t.PickedQuantity < t.RequiredQuantity {
			return false, nil
		}
	}
	return true, nil
}

func (uc *pickingUseCase) hasFullTaskForSKU(ctx context.Context, listID, sku string) (bool, error) {
	tasks, err := uc.repo.ListTasks(ctx, listID)
	if err != nil {
		return false, err
	}
	for _, t := range tasks {
		if t.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}
