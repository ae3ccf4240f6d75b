package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stockwise/fulfillment-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var ord model.Order
	err := r.DB.GetContext(ctx, &ord, `SELECT * FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadDetails(ctx, &ord); err != nil {
		return nil, err
	}
	return &ord, nil
}

func (r *PGRepository) FindDispatchedByLabel(ctx context.Context, label string) ([]model.Order, error) {
	var orders []model.Order
	query := `SELECT * FROM orders WHERE shipping_label = $1 AND status = $2 ORDER BY created_at`
	err := r.DB.SelectContext(ctx, &orders, query, label, model.OrderDispatched)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if err := r.loadDetails(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *PGRepository) MarkPacked(ctx context.Context, orderID, packedBy string, at time.Time, manual bool) error {
	query := `
        UPDATE orders
        SET status = $1, packed_by = $2, packed_at = $3, updated_at = $3
        WHERE id = $4 AND status = $5
    `
	res, err := r.DB.ExecContext(ctx, query, model.OrderPacked, packedBy, at, orderID, model.OrderDispatched)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %s is not in a packable state", orderID)
	}

	note := "scan-verified pack"
	if manual {
		note = "manual pack without scan verification"
	}
	audit := `
        INSERT INTO packing_audit (order_id, packed_by, packed_at, manual, note)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err = r.DB.ExecContext(ctx, audit, orderID, packedBy, at, manual, note)
	return err
}

func (r *PGRepository) loadDetails(ctx context.Context, ord *model.Order) error {
	itemsQuery := `SELECT * FROM order_items WHERE order_id = $1 ORDER BY id`
	if err := r.DB.SelectContext(ctx, &ord.Items, itemsQuery, ord.ID); err != nil {
		return err
	}

	barcodesQuery := `SELECT barcode FROM order_dispatched_barcodes WHERE order_id = $1 ORDER BY barcode`
	return r.DB.SelectContext(ctx, &ord.DispatchedBarcodes, barcodesQuery, ord.ID)
}
