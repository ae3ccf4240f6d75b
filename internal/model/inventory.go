package model

import "time"

// InventoryRecord is the on-hand ledger row. A SKU may span multiple
// locations; OnHand never goes negative.
type InventoryRecord struct {
	ID        string    `db:"id"`
	SKU       string    `db:"sku"`
	Location  string    `db:"location"`
	OnHand    int       `db:"on_hand"`
	UpdatedAt time.Time `db:"updated_at"`
}

// StockMovement is the immutable audit row written in the same transaction as
// every on-hand change.
type StockMovement struct {
	ID             string    `db:"id"`
	SKU            string    `db:"sku"`
	Location       string    `db:"location"`
	MovementType   string    `db:"movement_type"` // 'stock_in', 'pick', 'adjustment', 'channel_pull', 'manual_pack'
	QuantityChange int       `db:"quantity_change"`
	QuantityBefore int       `db:"quantity_before"`
	QuantityAfter  int       `db:"quantity_after"`
	ReferenceType  *string   `db:"reference_type"`
	ReferenceID    *string   `db:"reference_id"`
	Notes          string    `db:"notes"`
	CreatedBy      *string   `db:"created_by"`
	CreatedAt      time.Time `db:"created_at"`
}

// PendingPlacement is created at stock-in and removed when the operator
// confirms the goods reached their target location.
type PendingPlacement struct {
	ID             string    `db:"id"`
	Barcode        string    `db:"barcode"`
	SKU            string    `db:"sku"`
	TargetLocation string    `db:"target_location"`
	Quantity       int       `db:"quantity"`
	CreatedAt      time.Time `db:"created_at"`
}
