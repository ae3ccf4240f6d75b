package model

import "time"

// ChannelAccount is one external sales-marketplace account. Cursors advance
// only after a pull completes.
type ChannelAccount struct {
	ID                 string     `db:"id"`
	Name               string     `db:"name"`
	CredentialsRef     string     `db:"credentials_ref"`
	Enabled            bool       `db:"enabled"`
	UseOrders          bool       `db:"use_orders"`
	UseInventory       bool       `db:"use_inventory"`
	LastOrdersSince    *time.Time `db:"last_orders_since"`
	LastInventorySince *time.Time `db:"last_inventory_since"`
}

// ExternalOrderIndex maps an external order id to the local order it became.
// Unique on (account_id, external_id): at-most-once import under retries.
type ExternalOrderIndex struct {
	AccountID  string    `db:"account_id"`
	ExternalID string    `db:"external_id"`
	LocalID    string    `db:"local_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// ExternalInventoryIndex maps an external catalog item to a local SKU.
type ExternalInventoryIndex struct {
	AccountID  string    `db:"account_id"`
	ExternalID string    `db:"external_id"`
	SKU        string    `db:"sku"`
	CreatedAt  time.Time `db:"created_at"`
}

// ChannelListing is the per-(account,SKU) push target, including the safety
// buffer subtracted from ATP before the quantity goes out.
type ChannelListing struct {
	ID          string    `db:"id"`
	AccountID   string    `db:"account_id"`
	SKU         string    `db:"sku"`
	ExternalSKU string    `db:"external_sku"`
	Buffer      int       `db:"buffer"`
	UpdatedAt   time.Time `db:"updated_at"`
}
