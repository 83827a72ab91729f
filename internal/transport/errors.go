package transport

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by any operation on a transport after Close.
var ErrClosed = errors.New("transport is closed")

// PayloadTooLargeError is returned when a publish exceeds the configured
// maximum payload size.
type PayloadTooLargeError struct {
	Size int
	Max  int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload too large: %d bytes exceeds max %d", e.Size, e.Max)
}

// ConnectionError wraps a backend connection failure.
type ConnectionError struct{ Message string }

func (e *ConnectionError) Error() string { return "connection: " + e.Message }

// PublishError wraps a backend-specific publish failure.
type PublishError struct{ Message string }

func (e *PublishError) Error() string { return "publish: " + e.Message }

// SubscribeError wraps a backend-specific subscribe failure.
type SubscribeError struct{ Message string }

func (e *SubscribeError) Error() string { return "subscribe: " + e.Message }

// StreamError wraps a backend-specific stream-management failure
// (ensure_stream, trim_stream).
type StreamError struct{ Message string }

func (e *StreamError) Error() string { return "stream: " + e.Message }

// SerializationError wraps a JSON marshal/unmarshal failure encountered
// while building or reading an envelope.
type SerializationError struct{ Err error }

func (e *SerializationError) Error() string { return fmt.Sprintf("serialization: %v", e.Err) }
func (e *SerializationError) Unwrap() error { return e.Err }

// OtherError is a catch-all for conditions that don't fit a more specific
// type above.
type OtherError struct{ Message string }

func (e *OtherError) Error() string { return e.Message }

// IsRetryable reports whether err indicates a condition worth retrying.
func IsRetryable(err error) bool {
	var conn *ConnectionError
	if errors.As(err, &conn) {
		return true
	}
	var pub *PublishError
	if errors.As(err, &pub) {
		return true
	}
	return false
}

// IsPermanent reports whether err indicates a condition retrying cannot fix.
func IsPermanent(err error) bool {
	var tooLarge *PayloadTooLargeError
	if errors.As(err, &tooLarge) {
		return true
	}
	var ser *SerializationError
	if errors.As(err, &ser) {
		return true
	}
	return errors.Is(err, ErrClosed)
}

// ErrorCode returns a stable machine-readable code for known error types.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrClosed):
		return "TRANSPORT_CLOSED"
	default:
		var tooLarge *PayloadTooLargeError
		if errors.As(err, &tooLarge) {
			return "PAYLOAD_TOO_LARGE"
		}
		var conn *ConnectionError
		if errors.As(err, &conn) {
			return "CONNECTION"
		}
		var pub *PublishError
		if errors.As(err, &pub) {
			return "PUBLISH"
		}
		var sub *SubscribeError
		if errors.As(err, &sub) {
			return "SUBSCRIBE"
		}
		var stream *StreamError
		if errors.As(err, &stream) {
			return "STREAM"
		}
		var ser *SerializationError
		if errors.As(err, &ser) {
			return "SERIALIZATION"
		}
		return "UNKNOWN_ERROR"
	}
}
