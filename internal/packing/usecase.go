package packing

import "context"

// State of one packing session. Counts live with the session until PACKED is
// committed; cancelling discards them and leaves the order untouched.
type State string

const (
	StateViewing      State = "VIEWING"
	StateLabelScanned State = "LABEL_SCANNED"
	StatePacking      State = "PACKING"
	StateConfirming   State = "CONFIRMING"
	StatePacked       State = "PACKED"
)

// LineProgress is the scan count against one order line.
type LineProgress struct {
	ItemID   string `json:"item_id"`
	SKU      string `json:"sku"`
	Required int    `json:"required"`
	Scanned  int    `json:"scanned"`
}

type Snapshot struct {
	SessionID   string         `json:"session_id"`
	State       State          `json:"state"`
	OrderID     string         `json:"order_id,omitempty"`
	OrderNumber string         `json:"order_number,omitempty"`
	Lines       []LineProgress `json:"lines,omitempty"`
}

type UseCase interface {
	StartSession(ctx context.Context) (*Snapshot, error)

	// ScanLabel looks up the DISPATCHED order by shipping label. More than one
	// match fails apperr.ErrMultipleOrdersMatched rather than silently picking
	// one.
	ScanLabel(ctx context.Context, sessionID, code string) (*Snapshot, error)

	// ScanItem counts one unit against the line the code matches: a barcode
	// recorded at dispatch, an item barcode, or a bare SKU line. No match
	// fails apperr.ErrItemNotInOrder; a full line fails
	// apperr.ErrQuantityExceeded without mutation.
	ScanItem(ctx context.Context, sessionID, code string) (*Snapshot, error)

	// ConfirmUnit is the manual "one unit" action for barcode-less items,
	// under the same ceiling guard as ScanItem.
	ConfirmUnit(ctx context.Context, sessionID, sku string) (*Snapshot, error)

	// Confirm commits CONFIRMING -> PACKED durably with packedBy/packedAt.
	Confirm(ctx context.Context, sessionID, packedBy string) (*Snapshot, error)

	// Cancel discards in-progress counts and returns the session to VIEWING.
	Cancel(ctx context.Context, sessionID string) (*Snapshot, error)

	// MarkPackedManually is the no-scan bypass for orders never entered into
	// the scan flow. Audited distinctly from scan-verified packing.
	MarkPackedManually(ctx context.Context, orderID, packedBy string) error
}
