package scanrelay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/model"
	"github.com/stockwise/fulfillment-service/internal/packing"
	pickdto "github.com/stockwise/fulfillment-service/internal/picking/dto"
	"github.com/stockwise/fulfillment-service/pkg/logger"
)

type scannedCall struct{ id, code string }

type fakePickUC struct {
	scans []scannedCall
	err   error
}

func (f *fakePickUC) CreateList(ctx context.Context, input *pickdto.CreateListInput) (*model.PickingList, error) {
	return nil, nil
}

func (f *fakePickUC) GetList(ctx context.Context, listID string) (*model.PickingList, []model.PickingTask, error) {
	return nil, nil, nil
}

func (f *fakePickUC) Scan(ctx context.Context, listID, code string) (*pickdto.ScanResult, error) {
	f.scans = append(f.scans, scannedCall{listID, code})
	if f.err != nil {
		return nil, f.err
	}
	return &pickdto.ScanResult{}, nil
}

func (f *fakePickUC) Done(ctx context.Context, listID string) (bool, error) { return false, nil }

type fakePackUC struct {
	labels []scannedCall
	items  []scannedCall
}

func (f *fakePackUC) StartSession(ctx context.Context) (*packing.Snapshot, error) { return nil, nil }

func (f *fakePackUC) ScanLabel(ctx context.Context, sessionID, code string) (*packing.Snapshot, error) {
	f.labels = append(f.labels, scannedCall{sessionID, code})
	return &packing.Snapshot{}, nil
}

func (f *fakePackUC) ScanItem(ctx context.Context, sessionID, code string) (*packing.Snapshot, error) {
	f.items = append(f.items, scannedCall{sessionID, code})
	return &packing.Snapshot{}, nil
}

func (f *fakePackUC) ConfirmUnit(ctx context.Context, sessionID, sku string) (*packing.Snapshot, error) {
	return nil, nil
}

func (f *fakePackUC) Confirm(ctx context.Context, sessionID, packedBy string) (*packing.Snapshot, error) {
	return nil, nil
}

func (f *fakePackUC) Cancel(ctx context.Context, sessionID string) (*packing.Snapshot, error) {
	return nil, nil
}

func (f *fakePackUC) MarkPackedManually(ctx context.Context, orderID, packedBy string) error {
	return nil
}

func newListener() (*ScanListener, *fakePickUC, *fakePackUC) {
	pickUC := &fakePickUC{}
	packUC := &fakePackUC{}
	return NewScanListener(nil, pickUC, packUC, logger.NewNop()), pickUC, packUC
}

func TestProcessMessage_DispatchesByKind(t *testing.T) {
	l, pickUC, packUC := newListener()
	ctx := context.Background()

	l.processMessage(ctx, []byte(`{"device_id":"hh-1","kind":"picking","list_id":"list-1","code":"4001"}`))
	l.processMessage(ctx, []byte(`{"device_id":"hh-1","kind":"packing_label","session_id":"s-1","code":"LBL-1"}`))
	l.processMessage(ctx, []byte(`{"device_id":"hh-1","kind":"packing_item","session_id":"s-1","code":"B1"}`))

	assert.Equal(t, []scannedCall{{"list-1", "4001"}}, pickUC.scans)
	assert.Equal(t, []scannedCall{{"s-1", "LBL-1"}}, packUC.labels)
	assert.Equal(t, []scannedCall{{"s-1", "B1"}}, packUC.items)
}

func TestProcessMessage_DropsMalformedAndUnknown(t *testing.T) {
	l, pickUC, packUC := newListener()
	ctx := context.Background()

	l.processMessage(ctx, []byte(`not json`))
	// No code, then an unknown kind.
	l.processMessage(ctx, []byte(`{"kind":"picking","list_id":"list-1"}`))
	l.processMessage(ctx, []byte(`{"kind":"telemetry","code":"whatever"}`))

	assert.Empty(t, pickUC.scans)
	assert.Empty(t, packUC.labels)
	assert.Empty(t, packUC.items)
}

func TestProcessMessage_ScanRejectionIsNotFatal(t *testing.T) {
	l, pickUC, _ := newListener()
	pickUC.err = apperr.ErrQuantityExceeded

	l.processMessage(context.Background(), []byte(`{"kind":"picking","list_id":"list-1","code":"4001"}`))
	assert.Len(t, pickUC.scans, 1)
}
