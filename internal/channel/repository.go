package channel

import (
	"context"
	"time"

	"github.com/stockwise/fulfillment-service/internal/model"
)

type Repository interface {
	GetAccount(ctx context.Context, id string) (*model.ChannelAccount, error)
	ListEnabledAccounts(ctx context.Context) ([]model.ChannelAccount, error)

	// Cursor advances happen only after a pull has processed all fetched rows.
	AdvanceOrdersCursor(ctx context.Context, accountID string, to time.Time) error
	AdvanceInventoryCursor(ctx context.Context, accountID string, to time.Time) error

	// Dedup indexes
	LookupOrderIndex(ctx context.Context, accountID, externalID string) (*model.ExternalOrderIndex, error)
	LookupInventoryIndex(ctx context.Context, accountID, externalID string) (*model.ExternalInventoryIndex, error)
	InsertInventoryIndex(ctx context.Context, idx *model.ExternalInventoryIndex) error

	// Listings
	ListListings(ctx context.Context, accountID string) ([]model.ChannelListing, error)
	UpsertListing(ctx context.Context, l *model.ChannelListing) error

	// Buffer implements reservation.BufferSource.
	Buffer(ctx context.Context, accountID, sku string) (int, bool, error)
}
