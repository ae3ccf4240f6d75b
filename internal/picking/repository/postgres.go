package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/stockwise/fulfillment-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateList(ctx context.Context, list *model.PickingList, tasks []model.PickingTask) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	listQuery := `
        INSERT INTO picking_lists (id, name, status, created_at)
        VALUES (:id, :name, :status, :created_at)
    `
	if _, err = tx.NamedExecContext(ctx, listQuery, list); err != nil {
		return fmt.Errorf("failed to insert picking list: %w", err)
	}

	taskQuery := `
        INSERT INTO picking_tasks (
            id, list_id, sku, item_name, order_id, location,
            required_quantity, picked_quantity, status, position, created_at
        )
        VALUES (
            :id, :list_id, :sku, :item_name, :order_id, :location,
            :required_quantity, :picked_quantity, :status, :position, :created_at
        )
    `
	for _, task := range tasks {
		if _, err = tx.NamedExecContext(ctx, taskQuery, task); err != nil {
			return fmt.Errorf("failed to insert picking task: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) GetList(ctx context.Context, id string) (*model.PickingList, error) {
	var list model.PickingList
	err := r.DB.GetContext(ctx, &list, `SELECT * FROM picking_lists WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &list, nil
}

func (r *PGRepository) ListTasks(ctx context.Context, listID string) ([]model.PickingTask, error) {
	var tasks []model.PickingTask
	query := `SELECT * FROM picking_tasks WHERE list_id = $1 ORDER BY position`
	err := r.DB.SelectContext(ctx, &tasks, query, listID)
	return tasks, err
}

func (r *PGRepository) GetTask(ctx context.Context, id string) (*model.PickingTask, error) {
	var task model.PickingTask
	err := r.DB.GetContext(ctx, &task, `SELECT * FROM picking_tasks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *PGRepository) FirstOpenTaskBySKU(ctx context.Context, listID, sku string) (*model.PickingTask, error) {
	var task model.PickingTask
	query := `
        SELECT * FROM picking_tasks
        WHERE list_id = $1 AND sku = $2 AND status = $3
          AND picked_quantity < required_quantity
        ORDER BY position
        LIMIT 1
    `
	err := r.DB.GetContext(ctx, &task, query, listID, sku, model.TaskPending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *PGRepository) IncrementPicked(ctx context.Context, taskID string) (bool, error) {
	query := `
        UPDATE picking_tasks
        SET picked_quantity = picked_quantity + 1
        WHERE id = $1 AND picked_quantity < required_quantity
    `
	res, err := r.DB.ExecContext(ctx, query, taskID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepository) MarkTaskCompleted(ctx context.Context, taskID string) error {
	query := `UPDATE picking_tasks SET status = $1 WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, model.TaskCompleted, taskID)
	return err
}
