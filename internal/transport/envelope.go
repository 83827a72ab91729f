// Package transport defines the polymorphic publish/subscribe contract
// (Transport, Message, Subscription, MessageHandler) shared by every
// backend, plus the wire envelope and its options. Concrete backends live
// in sibling packages (memtransport, redistransport).
package transport

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Envelope wraps every message on the transport. The transport creates and
// reads it; domain code only ever sees Payload. JSON is the wire format;
// Payload round-trips as a base64 string under the "payload" key (Go's
// encoding/json does this for []byte automatically).
type Envelope struct {
	MessageID string  `json:"message_id"`
	Subject   string  `json:"subject"`
	Timestamp int64   `json:"timestamp"`
	TraceID   *string `json:"trace_id,omitempty"`
	Payload   []byte  `json:"payload"`
}

// NewEnvelope stamps a fresh ULID message id and the current unix-millis
// timestamp onto a new envelope.
func NewEnvelope(subject string, payload []byte, traceID *string) Envelope {
	return Envelope{
		MessageID: ulid.Make().String(),
		Subject:   subject,
		Timestamp: time.Now().UnixMilli(),
		TraceID:   traceID,
		Payload:   payload,
	}
}
