package transport

import (
	"context"
	"time"
)

// Transport is the capability every backend (in-memory, external-broker)
// implements identically: publish/subscribe over subjects with consumer-
// group delivery, stream lifecycle, and health checks.
type Transport interface {
	// Publish validates payload size, wraps it in an envelope, appends it
	// to the subject's log, and returns the envelope's message id.
	Publish(ctx context.Context, subject string, payload []byte, opts *PublishOpts) (string, error)

	// Subscribe registers a handler for (subject, group) and returns
	// immediately with a Subscription; the transport drives the handler
	// until the subscription is unsubscribed.
	Subscribe(ctx context.Context, subject, group string, handler MessageHandler, opts *SubscribeOpts) (Subscription, error)

	// EnsureStream idempotently declares a subject with retention params.
	EnsureStream(ctx context.Context, config StreamConfig) error

	// TrimStream removes entries published at or before now-maxAge and
	// returns how many were removed. A non-existent subject returns 0.
	TrimStream(ctx context.Context, subject string, maxAge time.Duration) (uint64, error)

	Ping(ctx context.Context) (bool, error)
	Close(ctx context.Context) error
}

// Message is handed to a MessageHandler for exactly one envelope. The
// handler must invoke exactly one of Ack, Nak, or DeadLetter; subsequent
// calls after the first are silent no-ops.
type Message interface {
	Envelope() Envelope
	Payload() []byte
	Ack(ctx context.Context) error
	Nak(ctx context.Context, delay *time.Duration) error
	DeadLetter(ctx context.Context, reason string) error
}

// MessageHandler processes one message at a time per subscription; an
// error return triggers an automatic Nak.
type MessageHandler interface {
	Handle(ctx context.Context, msg Message) error
}

// MessageHandlerFunc adapts a plain function to MessageHandler.
type MessageHandlerFunc func(ctx context.Context, msg Message) error

func (f MessageHandlerFunc) Handle(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Subscription is returned by Subscribe. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe(ctx context.Context) error
	IsActive() bool
}

// TransportConfig is the shared connection configuration.
type TransportConfig struct {
	URL            string
	MaxPayloadSize int
}

// DefaultMaxPayloadSize is 1 MiB, matching the spec default.
const DefaultMaxPayloadSize = 1 << 20

// PublishOpts customizes a single publish call.
type PublishOpts struct {
	TraceID *string
	// IdempotencyKey is carried for interface parity with the original
	// implementation; neither backend here deduplicates on it.
	IdempotencyKey *string
}

// StartPosition selects where a new subscription begins reading.
type StartPosition struct {
	kind      startPositionKind
	timestamp int64
	id        string
}

type startPositionKind int

const (
	startLatest startPositionKind = iota
	startEarliest
	startAtTimestamp
	startAtID
)

// Latest begins delivery at messages published after subscribe.
func Latest() StartPosition { return StartPosition{kind: startLatest} }

// Earliest replays everything currently retained.
func Earliest() StartPosition { return StartPosition{kind: startEarliest} }

// AtTimestamp begins at the last entry with timestamp strictly before ts
// (unix millis).
func AtTimestamp(ts int64) StartPosition {
	return StartPosition{kind: startAtTimestamp, timestamp: ts}
}

// AtID begins at the entry with this message id, exclusive.
func AtID(id string) StartPosition {
	return StartPosition{kind: startAtID, id: id}
}

func (p StartPosition) IsLatest() bool   { return p.kind == startLatest }
func (p StartPosition) IsEarliest() bool { return p.kind == startEarliest }

// Timestamp returns (ts, true) if p is an AtTimestamp position.
func (p StartPosition) Timestamp() (int64, bool) {
	return p.timestamp, p.kind == startAtTimestamp
}

// ID returns (id, true) if p is an AtID position.
func (p StartPosition) ID() (string, bool) {
	return p.id, p.kind == startAtID
}

// SubscribeOpts customizes delivery for one subscription.
type SubscribeOpts struct {
	BatchSize   int
	MaxInflight int
	AckTimeout  time.Duration
	StartFrom   StartPosition
}

// DefaultSubscribeOpts matches the spec's defaults: batch_size=10,
// max_inflight=100, ack_timeout=30s, start_from=Latest.
func DefaultSubscribeOpts() *SubscribeOpts {
	return &SubscribeOpts{
		BatchSize:   10,
		MaxInflight: 100,
		AckTimeout:  30 * time.Second,
		StartFrom:   Latest(),
	}
}

// withDefaults fills a nil or partially-specified SubscribeOpts.
func withDefaults(opts *SubscribeOpts) *SubscribeOpts {
	def := DefaultSubscribeOpts()
	if opts == nil {
		return def
	}
	out := *opts
	if out.BatchSize <= 0 {
		out.BatchSize = def.BatchSize
	}
	if out.MaxInflight <= 0 {
		out.MaxInflight = def.MaxInflight
	}
	if out.AckTimeout <= 0 {
		out.AckTimeout = def.AckTimeout
	}
	if out.StartFrom == (StartPosition{}) {
		out.StartFrom = def.StartFrom
	}
	return &out
}

// ResolveSubscribeOpts is exported so backend packages can apply the same
// default-filling rule as the abstract contract.
func ResolveSubscribeOpts(opts *SubscribeOpts) *SubscribeOpts { return withDefaults(opts) }

// StreamConfig declares retention parameters for a subject. MaxBytes and
// MaxMsgs are advisory where a backend doesn't support them.
type StreamConfig struct {
	Subject string
	MaxAge  time.Duration
	MaxBytes *int64
	MaxMsgs  *int64
}
