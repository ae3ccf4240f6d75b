package model

import "time"

const (
	ReservationActive  = "ACTIVE"
	ReservationCleared = "CLEARED"
)

// Reservation is a hold against on-hand stock, created with the order line it
// backs. ACTIVE -> CLEARED exactly once.
type Reservation struct {
	ID        string     `db:"id"`
	OrderID   string     `db:"order_id"`
	SKU       string     `db:"sku"`
	Quantity  int        `db:"quantity"`
	Status    string     `db:"status"`
	CreatedAt time.Time  `db:"created_at"`
	ClearedAt *time.Time `db:"cleared_at"`
}
