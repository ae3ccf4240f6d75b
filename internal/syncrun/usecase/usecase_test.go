package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/channel"
	"github.com/stockwise/fulfillment-service/internal/model"
	"github.com/stockwise/fulfillment-service/internal/reservation"
	"github.com/stockwise/fulfillment-service/internal/syncrun"
	"github.com/stockwise/fulfillment-service/pkg/logger"
)

// fakeBackend implements channel.Repository and syncrun.Repository over shared
// in-memory state so ImportOrder writes are visible to the index lookups.
type fakeBackend struct {
	accounts     map[string]*model.ChannelAccount
	orderIdx     map[string]*model.ExternalOrderIndex     // account|external
	inventoryIdx map[string]*model.ExternalInventoryIndex // account|external
	listings     map[string]*model.ChannelListing         // account|sku
	orders       []*model.Order
	reservations []model.Reservation
	runs         []*model.ImportRun
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		accounts:     make(map[string]*model.ChannelAccount),
		orderIdx:     make(map[string]*model.ExternalOrderIndex),
		inventoryIdx: make(map[string]*model.ExternalInventoryIndex),
		listings:     make(map[string]*model.ChannelListing),
	}
}

func (f *fakeBackend) GetAccount(ctx context.Context, id string) (*model.ChannelAccount, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return nil, apperr.NotFoundf("channel account %s", id)
	}
	return acc, nil
}

func (f *fakeBackend) ListEnabledAccounts(ctx context.Context) ([]model.ChannelAccount, error) {
	var out []model.ChannelAccount
	for _, acc := range f.accounts {
		if acc.Enabled {
			out = append(out, *acc)
		}
	}
	return out, nil
}

func (f *fakeBackend) AdvanceOrdersCursor(ctx context.Context, accountID string, to time.Time) error {
	f.accounts[accountID].LastOrdersSince = &to
	return nil
}

func (f *fakeBackend) AdvanceInventoryCursor(ctx context.Context, accountID string, to time.Time) error {
	f.accounts[accountID].LastInventorySince = &to
	return nil
}

func (f *fakeBackend) LookupOrderIndex(ctx context.Context, accountID, externalID string) (*model.ExternalOrderIndex, error) {
	return f.orderIdx[accountID+"|"+externalID], nil
}

func (f *fakeBackend) LookupInventoryIndex(ctx context.Context, accountID, externalID string) (*model.ExternalInventoryIndex, error) {
	return f.inventoryIdx[accountID+"|"+externalID], nil
}

func (f *fakeBackend) InsertInventoryIndex(ctx context.Context, idx *model.ExternalInventoryIndex) error {
	key := idx.AccountID + "|" + idx.ExternalID
	if _, ok := f.inventoryIdx[key]; ok {
		return apperr.Conflictf("external item %s already indexed", idx.ExternalID)
	}
	f.inventoryIdx[key] = idx
	return nil
}

func (f *fakeBackend) ListListings(ctx context.Context, accountID string) ([]model.ChannelListing, error) {
	var out []model.ChannelListing
	for _, l := range f.listings {
		if l.AccountID == accountID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeBackend) UpsertListing(ctx context.Context, l *model.ChannelListing) error {
	f.listings[l.AccountID+"|"+l.SKU] = l
	return nil
}

func (f *fakeBackend) Buffer(ctx context.Context, accountID, sku string) (int, bool, error) {
	if l, ok := f.listings[accountID+"|"+sku]; ok {
		return l.Buffer, true, nil
	}
	return 0, false, nil
}

func (f *fakeBackend) ImportOrder(ctx context.Context, ord *model.Order, reservations []model.Reservation, idx *model.ExternalOrderIndex) error {
	key := idx.AccountID + "|" + idx.ExternalID
	if _, ok := f.orderIdx[key]; ok {
		return apperr.Conflictf("external order %s already imported", idx.ExternalID)
	}
	f.orders = append(f.orders, ord)
	f.reservations = append(f.reservations, reservations...)
	f.orderIdx[key] = idx
	return nil
}

func (f *fakeBackend) CreateRun(ctx context.Context, run *model.ImportRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeBackend) ListRuns(ctx context.Context, sourceRef string, limit int) ([]model.ImportRun, error) {
	var out []model.ImportRun
	for _, r := range f.runs {
		if r.SourceRef == sourceRef && len(out) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

// fakeClient is a spy: every network-bound call is recorded.
type fakeClient struct {
	orders    []channel.ExternalOrder
	items     []channel.ExternalInventoryItem
	pushErrs  map[string]error // externalSKU -> error
	lastSince time.Time
	pulls     int
	pushes    []string
}

func (f *fakeClient) PullOrders(ctx context.Context, token string, since time.Time) ([]channel.ExternalOrder, error) {
	f.pulls++
	f.lastSince = since
	return f.orders, nil
}

func (f *fakeClient) PullInventory(ctx context.Context, token string, since time.Time) ([]channel.ExternalInventoryItem, error) {
	f.pulls++
	f.lastSince = since
	return f.items, nil
}

func (f *fakeClient) PushQuantity(ctx context.Context, token, externalSKU string, quantity int) error {
	f.pushes = append(f.pushes, externalSKU)
	if err, ok := f.pushErrs[externalSKU]; ok {
		return err
	}
	return nil
}

type fakeCreds struct {
	err   error
	calls int
}

func (f *fakeCreds) Token(ctx context.Context, accountID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "token-" + accountID, nil
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func newMemLocker() *memLocker { return &memLocker{held: make(map[string]string)} }

func (l *memLocker) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = value
	return true, nil
}

func (l *memLocker) ReleaseLock(ctx context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == value {
		delete(l.held, key)
	}
	return nil
}

// fakeATP returns a canned effective quantity per SKU.
type fakeATP struct {
	effective map[string]int
}

func (f *fakeATP) Reserve(ctx context.Context, orderID, sku string, quantity int) (*model.Reservation, error) {
	return nil, nil
}
func (f *fakeATP) Clear(ctx context.Context, reservationID string) error { return nil }

func (f *fakeATP) ClearForOrder(ctx context.Context, orderID string) error { return nil }

func (f *fakeATP) ClearForOrderItem(ctx context.Context, orderID, sku string) error { return nil }

func (f *fakeATP) ComputeATP(ctx context.Context, sku, accountID string) (*reservation.ATP, error) {
	eff := f.effective[sku]
	return &reservation.ATP{SKU: sku, Effective: eff}, nil
}

type fixture struct {
	uc      syncrun.UseCase
	backend *fakeBackend
	client  *fakeClient
	creds   *fakeCreds
	locker  *memLocker
}

func newFixture(client *fakeClient, atp *fakeATP, cfg syncrun.Config) *fixture {
	backend := newFakeBackend()
	backend.accounts["acc1"] = &model.ChannelAccount{
		ID: "acc1", Name: "marketplace", Enabled: true, UseOrders: true, UseInventory: true,
	}
	creds := &fakeCreds{}
	locker := newMemLocker()
	if cfg.RunLockTTL == 0 {
		cfg.RunLockTTL = time.Minute
	}
	uc := NewSyncUseCase(backend, backend, atp, client, creds, locker, nil, logger.NewNop(), cfg)
	return &fixture{uc: uc, backend: backend, client: client, creds: creds, locker: locker}
}

func extOrder(id, number string, items ...channel.ExternalOrderItem) channel.ExternalOrder {
	return channel.ExternalOrder{ExternalID: id, OrderNumber: number, ModifiedAt: time.Now(), Items: items}
}

func TestRunOrderPull_ImportsOrdersWithReservations(t *testing.T) {
	client := &fakeClient{orders: []channel.ExternalOrder{
		extOrder("ext-1", "SO-1001", channel.ExternalOrderItem{SKU: "A101", Quantity: 2}),
		extOrder("ext-2", "SO-1002", channel.ExternalOrderItem{SKU: "B202", Quantity: 1}, channel.ExternalOrderItem{SKU: "A101", Quantity: 1}),
	}}
	fx := newFixture(client, &fakeATP{}, syncrun.Config{})

	run, err := fx.uc.RunOrderPull(context.Background(), "acc1")
	require.NoError(t, err)

	assert.Equal(t, model.RunSuccess, run.Status)
	assert.Equal(t, 2, run.RowsTotal)
	assert.Equal(t, 2, run.Created)
	assert.Equal(t, 0, run.Skipped)

	require.Len(t, fx.backend.orders, 2)
	assert.Equal(t, model.OrderPending, fx.backend.orders[0].Status)
	// One reservation per order line, three lines total.
	assert.Len(t, fx.backend.reservations, 3)
	require.NotNil(t, fx.backend.accounts["acc1"].LastOrdersSince)
}

func TestRunOrderPull_RePullSkipsSeenOrders(t *testing.T) {
	client := &fakeClient{orders: []channel.ExternalOrder{
		extOrder("ext-1", "SO-1001", channel.ExternalOrderItem{SKU: "A101", Quantity: 2}),
	}}
	fx := newFixture(client, &fakeATP{}, syncrun.Config{})
	ctx := context.Background()

	_, err := fx.uc.RunOrderPull(ctx, "acc1")
	require.NoError(t, err)

	// Channel reports the same order again inside the cursor overlap window.
	run, err := fx.uc.RunOrderPull(ctx, "acc1")
	require.NoError(t, err)

	assert.Equal(t, model.RunSuccess, run.Status)
	assert.Equal(t, 0, run.Created)
	assert.Equal(t, 1, run.Skipped)
	assert.Len(t, fx.backend.orders, 1)
	assert.Len(t, fx.backend.reservations, 1)
}

func TestRunOrderPull_CursorAdvancesDespiteRowErrors(t *testing.T) {
	client := &fakeClient{orders: []channel.ExternalOrder{
		extOrder("ext-1", "SO-1001", channel.ExternalOrderItem{SKU: "A101", Quantity: 2}),
		extOrder("ext-2", "", channel.ExternalOrderItem{SKU: "B202", Quantity: 1}), // no order number
		extOrder("ext-3", "SO-1003", channel.ExternalOrderItem{SKU: "", Quantity: 1}), // malformed line
	}}
	fx := newFixture(client, &fakeATP{}, syncrun.Config{})

	run, err := fx.uc.RunOrderPull(context.Background(), "acc1")
	require.NoError(t, err)

	assert.Equal(t, model.RunWarning, run.Status)
	assert.Equal(t, 1, run.Created)
	assert.Equal(t, 2, run.Errors)
	assert.NotEmpty(t, run.ErrorDetails)
	assert.NotNil(t, fx.backend.accounts["acc1"].LastOrdersSince, "a failing row must not pin the cursor")
}

func TestRunOrderPull_SecondPullUsesAdvancedCursor(t *testing.T) {
	client := &fakeClient{}
	fx := newFixture(client, &fakeATP{}, syncrun.Config{})
	ctx := context.Background()

	_, err := fx.uc.RunOrderPull(ctx, "acc1")
	require.NoError(t, err)
	assert.True(t, client.lastSince.IsZero(), "first pull starts from the zero cursor")

	cursor := *fx.backend.accounts["acc1"].LastOrdersSince
	_, err = fx.uc.RunOrderPull(ctx, "acc1")
	require.NoError(t, err)
	assert.Equal(t, cursor, client.lastSince)
}

func TestRunOrderPull_NoTokenRecordsErrorRun(t *testing.T) {
	fx := newFixture(&fakeClient{}, &fakeATP{}, syncrun.Config{})
	fx.creds.err = apperr.Upstreamf("refresh token expired")

	run, err := fx.uc.RunOrderPull(context.Background(), "acc1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)

	require.NotNil(t, run)
	assert.Equal(t, model.RunError, run.Status)
	assert.Equal(t, 0, run.RowsTotal)
	assert.Len(t, fx.backend.runs, 1)
	assert.Nil(t, fx.backend.accounts["acc1"].LastOrdersSince, "cursor must not move on a failed run")
}

func TestRunOrderPull_RejectedWhileAnotherRunHoldsTheLock(t *testing.T) {
	fx := newFixture(&fakeClient{}, &fakeATP{}, syncrun.Config{})
	ctx := context.Background()

	ok, err := fx.locker.AcquireLock(ctx, "sync:run:acc1:orders", "other-runner", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	run, err := fx.uc.RunOrderPull(ctx, "acc1")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Nil(t, run)
	assert.Empty(t, fx.backend.runs, "a rejected request leaves no audit record")
}

func TestRunOrderPull_DisabledAccount(t *testing.T) {
	fx := newFixture(&fakeClient{}, &fakeATP{}, syncrun.Config{})
	fx.backend.accounts["acc1"].UseOrders = false

	run, err := fx.uc.RunOrderPull(context.Background(), "acc1")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	require.NotNil(t, run)
	assert.Equal(t, model.RunError, run.Status)
}

func TestRunOrderPull_UnknownAccount(t *testing.T) {
	fx := newFixture(&fakeClient{}, &fakeATP{}, syncrun.Config{})

	_, err := fx.uc.RunOrderPull(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRunInventoryPull_CreatesThenUpdates(t *testing.T) {
	client := &fakeClient{items: []channel.ExternalInventoryItem{
		{ExternalID: "it-1", SKU: "A101", Name: "Widget"},
		{ExternalID: "it-2", SKU: "B202", Name: "Gadget"},
	}}
	fx := newFixture(client, &fakeATP{}, syncrun.Config{})
	ctx := context.Background()

	run, err := fx.uc.RunInventoryPull(ctx, "acc1")
	require.NoError(t, err)
	assert.Equal(t, 2, run.Created)
	assert.Equal(t, 0, run.Updated)
	assert.Len(t, fx.backend.listings, 2)

	// Same items again: index rows already exist, listings just refresh.
	run, err = fx.uc.RunInventoryPull(ctx, "acc1")
	require.NoError(t, err)
	assert.Equal(t, 0, run.Created)
	assert.Equal(t, 2, run.Updated)
	require.NotNil(t, fx.backend.accounts["acc1"].LastInventorySince)
}

func TestRunInventoryPull_ItemWithoutSKU(t *testing.T) {
	client := &fakeClient{items: []channel.ExternalInventoryItem{
		{ExternalID: "it-1", SKU: ""},
		{ExternalID: "it-2", SKU: "B202"},
	}}
	fx := newFixture(client, &fakeATP{}, syncrun.Config{})

	run, err := fx.uc.RunInventoryPull(context.Background(), "acc1")
	require.NoError(t, err)
	assert.Equal(t, model.RunWarning, run.Status)
	assert.Equal(t, 1, run.Created)
	assert.Equal(t, 1, run.Errors)
}

func seedListings(fx *fixture, skus ...string) {
	for _, sku := range skus {
		fx.backend.listings["acc1|"+sku] = &model.ChannelListing{
			ID: "l-" + sku, AccountID: "acc1", SKU: sku, ExternalSKU: "ext-" + sku,
		}
	}
}

func TestRunInventoryPush_DryRunTouchesNoNetwork(t *testing.T) {
	client := &fakeClient{}
	atp := &fakeATP{effective: map[string]int{"A101": 5, "B202": 0, "C303": 2}}
	fx := newFixture(client, atp, syncrun.Config{LivePush: false})
	seedListings(fx, "A101", "B202", "C303")

	run, err := fx.uc.RunInventoryPush(context.Background(), "acc1")
	require.NoError(t, err)

	assert.Equal(t, model.RunSuccess, run.Status)
	assert.Equal(t, 3, run.RowsTotal)
	assert.Equal(t, 2, run.Updated)
	assert.Equal(t, 1, run.Skipped, "effective <= 0 is withheld")

	assert.Empty(t, client.pushes, "dry run must not call the channel")
	assert.Zero(t, fx.creds.calls, "dry run must not even fetch a token")
}

func TestRunInventoryPush_LiveRowFailureIsIsolated(t *testing.T) {
	client := &fakeClient{pushErrs: map[string]error{
		"ext-B202": apperr.Upstreamf("channel returned 502"),
	}}
	atp := &fakeATP{effective: map[string]int{"A101": 5, "B202": 3, "C303": 2}}
	fx := newFixture(client, atp, syncrun.Config{LivePush: true})
	seedListings(fx, "A101", "B202", "C303")

	run, err := fx.uc.RunInventoryPush(context.Background(), "acc1")
	require.NoError(t, err)

	assert.Equal(t, model.RunWarning, run.Status)
	assert.Equal(t, 2, run.Updated)
	assert.Equal(t, 1, run.Errors)
	assert.Len(t, client.pushes, 3, "every positive row is attempted")
	assert.Equal(t, 1, fx.creds.calls)
}

func TestListRuns(t *testing.T) {
	fx := newFixture(&fakeClient{}, &fakeATP{}, syncrun.Config{})
	ctx := context.Background()

	_, err := fx.uc.RunOrderPull(ctx, "acc1")
	require.NoError(t, err)

	runs, err := fx.uc.ListRuns(ctx, "acc1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.SourceOrdersPull, runs[0].SourceType)
}
