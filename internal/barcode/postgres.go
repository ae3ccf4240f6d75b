package barcode

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/model"
)

// PGResolver resolves a code against the product barcode column first, then
// the alias table, and finally accepts the code as a bare SKU if the catalog
// knows it.
type PGResolver struct {
	DB *sqlx.DB
}

func NewPGResolver(db *sqlx.DB) *PGResolver {
	return &PGResolver{DB: db}
}

func (r *PGResolver) Resolve(ctx context.Context, code string) (string, error) {
	var product model.Product
	err := r.DB.GetContext(ctx, &product, `SELECT * FROM products WHERE barcode = $1`, code)
	if err == nil {
		return product.SKU, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	var alias model.BarcodeAlias
	err = r.DB.GetContext(ctx, &alias, `SELECT * FROM barcode_aliases WHERE external_code = $1`, code)
	if err == nil {
		return alias.SKU, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	err = r.DB.GetContext(ctx, &product, `SELECT * FROM products WHERE sku = $1`, code)
	if err == nil {
		return product.SKU, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.NotFoundf("barcode %s", code)
	}
	return "", err
}
