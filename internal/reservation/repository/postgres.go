package repository

import (
	"context"
	"database/sql"
	"errors"
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

func (r *PGRepository) Create(ctx context.Context, res *model.Reservation) error {
	query := `
        INSERT INTO reservations (id, order_id, sku, quantity, status, created_at, cleared_at)
        VALUES (:id, :order_id, :sku, :quantity, :status, :created_at, :cleared_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, res)
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	var res model.Reservation
	err := r.DB.GetContext(ctx, &res, `SELECT * FROM reservations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (r *PGRepository) GetByOrderAndSKU(ctx context.Context, orderID, sku string) (*model.Reservation, error) {
	var res model.Reservation
	query := `SELECT * FROM reservations WHERE order_id = $1 AND sku = $2 ORDER BY created_at LIMIT 1`
	err := r.DB.GetContext(ctx, &res, query, orderID, sku)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (r *PGRepository) ListActiveByOrder(ctx context.Context, orderID string) ([]model.Reservation, error) {
	var items []model.Reservation
	query := `SELECT * FROM reservations WHERE order_id = $1 AND status = $2 ORDER BY created_at`
	err := r.DB.SelectContext(ctx, &items, query, orderID, model.ReservationActive)
	return items, err
}

func (r *PGRepository) SumActiveBySKU(ctx context.Context, sku string) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(quantity), 0) FROM reservations WHERE sku = $1 AND status = $2`
	err := r.DB.GetContext(ctx, &total, query, sku, model.ReservationActive)
	return total, err
}

// MarkCleared is conditional on the current status, so duplicate clears and
// racing clears collapse to one transition.
func (r *PGRepository) MarkCleared(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE reservations SET status = $1, cleared_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.DB.ExecContext(ctx, query, model.ReservationCleared, at, id, model.ReservationActive)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
