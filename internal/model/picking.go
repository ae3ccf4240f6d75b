package model

import "time"

const (
	TaskPending   = "PENDING"
	TaskCompleted = "COMPLETED"
)

type PickingList struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// PickingTask counts scans for one SKU. Position fixes the FIFO tie-break when
// several tasks in a list share a SKU. PickedQuantity only increments.
type PickingTask struct {
	ID               string    `db:"id"`
	ListID           string    `db:"list_id"`
	SKU              string    `db:"sku"`
	ItemName         *string   `db:"item_name"`
	OrderID          *string   `db:"order_id"`
	Location         *string   `db:"location"`
	RequiredQuantity int       `db:"required_quantity"`
	PickedQuantity   int       `db:"picked_quantity"`
	Status           string    `db:"status"`
	Position         int       `db:"position"`
	CreatedAt        time.Time `db:"created_at"`
}
