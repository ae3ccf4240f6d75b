package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/model"
)

const uniqueViolation = pq.ErrorCode("23505")

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ImportOrder(ctx context.Context, ord *model.Order, reservations []model.Reservation, idx *model.ExternalOrderIndex) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	orderQuery := `
        INSERT INTO orders (id, order_number, status, shipping_label, packed_by, packed_at, created_at, updated_at)
        VALUES (:id, :order_number, :status, :shipping_label, :packed_by, :packed_at, :created_at, :updated_at)
    `
	if _, err = tx.NamedExecContext(ctx, orderQuery, ord); err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("order number %s exists", ord.OrderNumber)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
        INSERT INTO order_items (id, order_id, sku, quantity, barcode)
        VALUES (:id, :order_id, :sku, :quantity, :barcode)
    `
	for _, item := range ord.Items {
		if _, err = tx.NamedExecContext(ctx, itemQuery, item); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	resQuery := `
        INSERT INTO reservations (id, order_id, sku, quantity, status, created_at, cleared_at)
        VALUES (:id, :order_id, :sku, :quantity, :status, :created_at, :cleared_at)
    `
	for _, res := range reservations {
		if _, err = tx.NamedExecContext(ctx, resQuery, res); err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
	}

	idxQuery := `
        INSERT INTO external_order_index (account_id, external_id, local_id, created_at)
        VALUES (:account_id, :external_id, :local_id, :created_at)
    `
	if _, err = tx.NamedExecContext(ctx, idxQuery, idx); err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("order index %s/%s exists", idx.AccountID, idx.ExternalID)
		}
		return fmt.Errorf("failed to insert order index: %w", err)
	}

	return tx.Commit()
}

func (r *PGRepository) CreateRun(ctx context.Context, run *model.ImportRun) error {
	query := `
        INSERT INTO import_runs (
            id, source_type, source_ref, rows_total,
            created, updated, skipped, errors,
            status, error_details, created_at
        )
        VALUES (
            :id, :source_type, :source_ref, :rows_total,
            :created, :updated, :skipped, :errors,
            :status, :error_details, :created_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, run)
	return err
}

func (r *PGRepository) ListRuns(ctx context.Context, sourceRef string, limit int) ([]model.ImportRun, error) {
	var items []model.ImportRun
	query := `SELECT * FROM import_runs WHERE source_ref = $1 ORDER BY created_at DESC LIMIT $2`
	err := r.DB.SelectContext(ctx, &items, query, sourceRef, limit)
	return items, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
