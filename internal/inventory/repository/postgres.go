package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/inventory/dto"
	"github.com/stockwise/fulfillment-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetRecord(ctx context.Context, sku, location string) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	query := `SELECT * FROM inventory_records WHERE sku = $1 AND location = $2`
	err := r.DB.GetContext(ctx, &rec, query, sku, location)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // caller handles defaults
		}
		return nil, err
	}
	return &rec, nil
}

func (r *PGRepository) GetOnHand(ctx context.Context, sku string) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(on_hand), 0) FROM inventory_records WHERE sku = $1`
	err := r.DB.GetContext(ctx, &total, query, sku)
	return total, err
}

func (r *PGRepository) AdjustWithMovement(ctx context.Context, rec *model.InventoryRecord, mv *model.StockMovement) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = writeAdjustment(ctx, tx, rec, mv); err != nil {
		return err
	}

	return tx.Commit()
}

func writeAdjustment(ctx context.Context, tx *sqlx.Tx, rec *model.InventoryRecord, mv *model.StockMovement) error {
	upsertQuery := `
        INSERT INTO inventory_records (id, sku, location, on_hand, updated_at)
        VALUES (:id, :sku, :location, :on_hand, :updated_at)
        ON CONFLICT (sku, location)
        DO UPDATE SET
            on_hand = EXCLUDED.on_hand,
            updated_at = EXCLUDED.updated_at
    `
	if _, err := tx.NamedExecContext(ctx, upsertQuery, rec); err != nil {
		return fmt.Errorf("failed to update inventory record: %w", err)
	}

	insertLogQuery := `
        INSERT INTO stock_movements (
            id, sku, location, movement_type,
            quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :sku, :location, :movement_type,
            :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, insertLogQuery, mv); err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}
	return nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.SKU != "" {
		conditions = append(conditions, "sku = :sku")
		args["sku"] = f.SKU
	}
	if f.Location != "" {
		conditions = append(conditions, "location = :location")
		args["location"] = f.Location
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	var items []model.StockMovement
	err = nstmt.SelectContext(ctx, &items, args)
	return items, err
}

func (r *PGRepository) CreatePlacement(ctx context.Context, p *model.PendingPlacement) error {
	query := `
        INSERT INTO pending_placements (id, barcode, sku, target_location, quantity, created_at)
        VALUES (:id, :barcode, :sku, :target_location, :quantity, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) GetPlacementByBarcode(ctx context.Context, barcode string) (*model.PendingPlacement, error) {
	var p model.PendingPlacement
	query := `SELECT * FROM pending_placements WHERE barcode = $1 ORDER BY created_at LIMIT 1`
	err := r.DB.GetContext(ctx, &p, query, barcode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) ConfirmPlacement(ctx context.Context, placementID string, rec *model.InventoryRecord, mv *model.StockMovement) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = writeAdjustment(ctx, tx, rec, mv); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM pending_placements WHERE id = $1`, placementID)
	if err != nil {
		return fmt.Errorf("failed to remove confirmed placement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// A concurrent confirm already took this placement; rolling back keeps the
	// stock from being counted twice.
	if n == 0 {
		return apperr.NotFoundf("pending placement %s", placementID)
	}

	return tx.Commit()
}
