package statestore

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by any operation on a store after Close.
var ErrClosed = errors.New("store is closed")

// ConnectionError wraps a backend connection failure.
type ConnectionError struct{ Message string }

func (e *ConnectionError) Error() string { return "connection: " + e.Message }

// NotFoundError is reserved for callers that want an error rather than the
// (nil, false) absence signal Get/GetField already return; nothing in this
// package constructs it today.
type NotFoundError struct{ Key string }

func (e *NotFoundError) Error() string { return "key not found: " + e.Key }

// CasFailedError is reserved the same way: CompareAndSwap reports failure
// by returning false, not by erroring, matching spec.md's propagation
// policy. Carried for interface parity with the original.
type CasFailedError struct {
	Field    string
	Expected []byte
}

func (e *CasFailedError) Error() string {
	return fmt.Sprintf("compare-and-swap failed: field %s expected %q", e.Field, e.Expected)
}

// OtherError is a catch-all for conditions that don't fit a more specific
// type above.
type OtherError struct{ Message string }

func (e *OtherError) Error() string { return e.Message }

// IsRetryable reports whether err indicates a condition worth retrying.
func IsRetryable(err error) bool {
	var conn *ConnectionError
	return errors.As(err, &conn)
}

// IsPermanent reports whether err indicates a condition retrying cannot fix.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrClosed)
}

// ErrorCode returns a stable machine-readable code for known error types.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrClosed):
		return "STORE_CLOSED"
	default:
		var conn *ConnectionError
		if errors.As(err, &conn) {
			return "CONNECTION"
		}
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return "NOT_FOUND"
		}
		var cas *CasFailedError
		if errors.As(err, &cas) {
			return "CAS_FAILED"
		}
		return "UNKNOWN_ERROR"
	}
}
