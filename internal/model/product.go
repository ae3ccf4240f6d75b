package model

import "time"

// Product is the minimal catalog row this service needs: SKU identity plus the
// barcode used by scan resolution.
type Product struct {
	SKU       string    `db:"sku"`
	Name      string    `db:"name"`
	Barcode   *string   `db:"barcode"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BarcodeAlias links an external code (EAN, channel code) to a SKU when the
// product row carries a different primary barcode.
type BarcodeAlias struct {
	ID           string    `db:"id"`
	ExternalCode string    `db:"external_code"`
	SKU          string    `db:"sku"`
	CreatedAt    time.Time `db:"created_at"`
}
