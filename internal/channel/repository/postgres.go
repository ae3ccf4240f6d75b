package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

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

func (r *PGRepository) GetAccount(ctx context.Context, id string) (*model.ChannelAccount, error) {
	var acc model.ChannelAccount
	err := r.DB.GetContext(ctx, &acc, `SELECT * FROM channel_accounts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("channel account %s", id)
		}
		return nil, err
	}
	return &acc, nil
}

func (r *PGRepository) ListEnabledAccounts(ctx context.Context) ([]model.ChannelAccount, error) {
	var items []model.ChannelAccount
	query := `SELECT * FROM channel_accounts WHERE enabled = TRUE ORDER BY name`
	err := r.DB.SelectContext(ctx, &items, query)
	return items, err
}

func (r *PGRepository) AdvanceOrdersCursor(ctx context.Context, accountID string, to time.Time) error {
	query := `UPDATE channel_accounts SET last_orders_since = $1 WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, to, accountID)
	return err
}

func (r *PGRepository) AdvanceInventoryCursor(ctx context.Context, accountID string, to time.Time) error {
	query := `UPDATE channel_accounts SET last_inventory_since = $1 WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, to, accountID)
	return err
}

func (r *PGRepository) LookupOrderIndex(ctx context.Context, accountID, externalID string) (*model.ExternalOrderIndex, error) {
	var idx model.ExternalOrderIndex
	query := `SELECT * FROM external_order_index WHERE account_id = $1 AND external_id = $2`
	err := r.DB.GetContext(ctx, &idx, query, accountID, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &idx, nil
}

func (r *PGRepository) LookupInventoryIndex(ctx context.Context, accountID, externalID string) (*model.ExternalInventoryIndex, error) {
	var idx model.ExternalInventoryIndex
	query := `SELECT * FROM external_inventory_index WHERE account_id = $1 AND external_id = $2`
	err := r.DB.GetContext(ctx, &idx, query, accountID, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &idx, nil
}

func (r *PGRepository) InsertInventoryIndex(ctx context.Context, idx *model.ExternalInventoryIndex) error {
	query := `
        INSERT INTO external_inventory_index (account_id, external_id, sku, created_at)
        VALUES (:account_id, :external_id, :sku, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, idx)
	if isUniqueViolation(err) {
		return apperr.Conflictf("inventory index %s/%s exists", idx.AccountID, idx.ExternalID)
	}
	return err
}

func (r *PGRepository) ListListings(ctx context.Context, accountID string) ([]model.ChannelListing, error) {
	var items []model.ChannelListing
	query := `SELECT * FROM channel_listings WHERE account_id = $1 ORDER BY sku`
	err := r.DB.SelectContext(ctx, &items, query, accountID)
	return items, err
}

func (r *PGRepository) UpsertListing(ctx context.Context, l *model.ChannelListing) error {
	query := `
        INSERT INTO channel_listings (id, account_id, sku, external_sku, buffer, updated_at)
        VALUES (:id, :account_id, :sku, :external_sku, :buffer, :updated_at)
        ON CONFLICT (account_id, sku)
        DO UPDATE SET
            external_sku = EXCLUDED.external_sku,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.DB.NamedExecContext(ctx, query, l)
	return err
}

func (r *PGRepository) Buffer(ctx context.Context, accountID, sku string) (int, bool, error) {
	var buffer int
	query := `SELECT buffer FROM channel_listings WHERE account_id = $1 AND sku = $2`
	err := r.DB.GetContext(ctx, &buffer, query, accountID, sku)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return buffer, true, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
