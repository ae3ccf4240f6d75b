package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Call sites classify with errors.Is; repositories translate
// driver errors into these before they cross a package boundary.
var (
	// ErrNotFound: unknown SKU/order/account. Non-fatal, logged or skipped.
	ErrNotFound = errors.New("not found")
	// ErrConflict: duplicate external id, exceeded scan, busy run lock.
	// Rejected without mutation.
	ErrConflict = errors.New("conflict")
	// ErrUpstream: credential/network/channel API failure. Retried on the next
	// scheduled run, never synchronously looped.
	ErrUpstream = errors.New("upstream failure")
	// ErrValidation: malformed row or input. Counted, run continues.
	ErrValidation = errors.New("validation failed")
)

// Scan-flow rejections, each classified under ErrConflict or ErrNotFound so
// generic handling still works.
var (
	ErrNoMatchingTask        = fmt.Errorf("no matching task: %w", ErrNotFound)
	ErrQuantityExceeded      = fmt.Errorf("quantity exceeded: %w", ErrConflict)
	ErrItemNotInOrder        = fmt.Errorf("item not in order: %w", ErrConflict)
	ErrMultipleOrdersMatched = fmt.Errorf("multiple orders matched: %w", ErrConflict)
)

func NotFoundf(format string, args ...interface{}) error {
	return wrapf(ErrNotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) error {
	return wrapf(ErrConflict, format, args...)
}

func Upstreamf(format string, args ...interface{}) error {
	return wrapf(ErrUpstream, format, args...)
}

func Validationf(format string, args ...interface{}) error {
	return wrapf(ErrValidation, format, args...)
}

func wrapf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}
