package model

import "time"

const (
	OrderPending    = "PENDING"
	OrderDispatched = "DISPATCHED"
	OrderPacked     = "PACKED"
	OrderCancelled  = "CANCELLED"
)

// Order line items are fixed at dispatch; packing only records scan progress
// against them, never mutates them.
type Order struct {
	ID            string     `db:"id"`
	OrderNumber   string     `db:"order_number"`
	Status        string     `db:"status"`
	ShippingLabel *string    `db:"shipping_label"`
	PackedBy      *string    `db:"packed_by"`
	PackedAt      *time.Time `db:"packed_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`

	Items              []OrderItem `db:"-"`
	DispatchedBarcodes []string    `db:"-"`
}

type OrderItem struct {
	ID       string  `db:"id"`
	OrderID  string  `db:"order_id"`
	SKU      string  `db:"sku"`
	Quantity int     `db:"quantity"`
	Barcode  *string `db:"barcode"`
}
