// Package redistransport backs transport.Transport with Redis Streams:
// XADD for publish, server-side consumer groups (XGROUP/XREADGROUP/XACK)
// for subscribe, XAUTOCLAIM for claim-based redelivery of timed-out
// pending entries, and XADD-based dead-lettering. This is the production
// backend; memtransport is for tests and single-process deployments.
package redistransport

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flyingrobots/gbe/internal/obs"
	"github.com/flyingrobots/gbe/internal/transport"
)

var _ transport.Transport = (*Transport)(nil)

// Config tunes the Redis-backed transport.
type Config struct {
	MaxPayloadSize int
}

// DefaultConfig matches the abstract contract's 1 MiB default.
func DefaultConfig() Config {
	return Config{MaxPayloadSize: transport.DefaultMaxPayloadSize}
}

// Transport is a Redis Streams-backed transport.Transport.
type Transport struct {
	rdb    redis.UniversalClient
	config Config
	log    *zap.Logger
	closed atomic.Bool
}

// New wraps an existing client. The caller owns the client's lifecycle
// beyond Close, which only marks this Transport unusable.
func New(rdb redis.UniversalClient, config Config, log *zap.Logger) *Transport {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transport{rdb: rdb, config: config, log: log}
}

func (t *Transport) checkClosed() error {
	if t.closed.Load() {
		return transport.ErrClosed
	}
	return nil
}

func consumerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%s", host, ulid.Make().String())
}

func (t *Transport) Publish(ctx context.Context, subject string, payload []byte, opts *transport.PublishOpts) (string, error) {
	ctx, span := obs.StartPublishSpan(ctx, subject)
	defer span.End()

	if err := t.checkClosed(); err != nil {
		obs.RecordError(ctx, err)
		return "", err
	}
	if len(payload) > t.config.MaxPayloadSize {
		err := &transport.PayloadTooLargeError{Size: len(payload), Max: t.config.MaxPayloadSize}
		obs.RecordError(ctx, err)
		return "", err
	}

	var traceID *string
	if opts != nil {
		traceID = opts.TraceID
	}
	envelope := transport.NewEnvelope(subject, payload, traceID)

	envelopeJSON, err := marshalEnvelope(envelope)
	if err != nil {
		err = &transport.SerializationError{Err: err}
		obs.RecordError(ctx, err)
		return "", err
	}

	key := subjectToKey(subject)
	if err := t.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: key,
		Values: map[string]any{"envelope": envelopeJSON},
	}).Err(); err != nil {
		err = &transport.PublishError{Message: err.Error()}
		obs.RecordError(ctx, err)
		return "", err
	}

	obs.SetSpanSuccess(ctx)
	return envelope.MessageID, nil
}

func (t *Transport) Subscribe(ctx context.Context, subject, group string, handler transport.MessageHandler, opts *transport.SubscribeOpts) (transport.Subscription, error) {
	if err := t.checkClosed(); err != nil {
		return nil, err
	}

	resolved := transport.ResolveSubscribeOpts(opts)
	subCtx, cancel := context.WithCancel(context.Background())
	active := &atomic.Bool{}
	active.Store(true)

	go runConsumerLoop(subCtx, consumerParams{
		rdb:        t.rdb,
		streamKey:  subjectToKey(subject),
		group:      group,
		consumerID: consumerID(),
		handler:    handler,
		opts:       resolved,
		active:     active,
		log:        t.log,
	})

	return &redisSubscription{cancel: cancel, active: active}, nil
}

// EnsureStream idempotently declares the stream via XGROUP CREATE ... MKSTREAM
// with a sentinel group name; real consumer groups are created by Subscribe.
func (t *Transport) EnsureStream(ctx context.Context, config transport.StreamConfig) error {
	if err := t.checkClosed(); err != nil {
		return err
	}
	key := subjectToKey(config.Subject)
	if err := createGroup(ctx, t.rdb, key, "_init", "$"); err != nil {
		return err
	}
	return nil
}

// TrimStream delegates to Redis's native XTRIM MINID retention, removing
// entries whose id millisecond is at or before now-maxAge. Non-existent
// streams return 0.
func (t *Transport) TrimStream(ctx context.Context, subject string, maxAge time.Duration) (uint64, error) {
	if err := t.checkClosed(); err != nil {
		return 0, err
	}
	key := subjectToKey(subject)
	cutoffMs := time.Now().Add(-maxAge).UnixMilli()
	minID := fmt.Sprintf("%d-0", cutoffMs+1)

	removed, err := t.rdb.XTrimMinID(ctx, key, minID).Result()
	if err != nil {
		return 0, &transport.StreamError{Message: err.Error()}
	}
	return uint64(removed), nil
}

func (t *Transport) Ping(ctx context.Context) (bool, error) {
	pong, err := t.rdb.Ping(ctx).Result()
	if err != nil {
		return false, &transport.ConnectionError{Message: err.Error()}
	}
	return pong == "PONG", nil
}

func (t *Transport) Close(ctx context.Context) error {
	t.closed.Store(true)
	return nil
}
