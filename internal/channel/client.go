package channel

import (
	"context"
	"time"
)

// ExternalOrder is one order as a channel reports it.
type ExternalOrder struct {
	ExternalID  string              `json:"external_id"`
	OrderNumber string              `json:"order_number"`
	ModifiedAt  time.Time           `json:"modified_at"`
	Items       []ExternalOrderItem `json:"items"`
}

type ExternalOrderItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Barcode  string `json:"barcode,omitempty"`
}

// ExternalInventoryItem is one catalog entry as a channel reports it.
type ExternalInventoryItem struct {
	ExternalID string `json:"external_id"`
	SKU        string `json:"sku"`
	Name       string `json:"name"`
}

// Client is the channel capability boundary. Pipelines depend only on this,
// which keeps them testable without a network. Boundary duplicates on `since`
// are expected; the dedup index filters them, not the cursor.
type Client interface {
	PullOrders(ctx context.Context, token string, since time.Time) ([]ExternalOrder, error)
	PullInventory(ctx context.Context, token string, since time.Time) ([]ExternalInventoryItem, error)
	PushQuantity(ctx context.Context, token, externalSKU string, quantity int) error
}

// CredentialProvider yields a currently-valid bearer token for an account.
// Refresh and persistence are the provider's problem.
type CredentialProvider interface {
	Token(ctx context.Context, accountID string) (string, error)
}
