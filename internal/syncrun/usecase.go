package syncrun

import (
	"context"
	"time"

	"github.com/stockwise/fulfillment-service/internal/model"
)

// RunLocker is the atomically checked-and-set RUNNING marker for one
// (account, kind). The TTL recovers the marker when a holder crashes mid-run.
// *cache.RedisClient satisfies it.
type RunLocker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

type Config struct {
	RunLockTTL time.Duration
	// LivePush false keeps inventory pushes as per-row dry-run log lines.
	LivePush bool
}

type UseCase interface {
	// RunOrderPull imports unseen external orders with their reservations and
	// advances the orders cursor. Rejects with apperr.ErrConflict when a run
	// for the same account and kind is already in flight.
	RunOrderPull(ctx context.Context, accountID string) (*model.ImportRun, error)

	// RunInventoryPull maps external catalog items to local SKUs and listings.
	RunInventoryPull(ctx context.Context, accountID string) (*model.ImportRun, error)

	// RunInventoryPush computes effective ATP per listing and pushes it (or
	// dry-run logs it). Rows with effective <= 0 are skipped.
	RunInventoryPush(ctx context.Context, accountID string) (*model.ImportRun, error)

	ListRuns(ctx context.Context, sourceRef string, limit int) ([]model.ImportRun, error)
}
