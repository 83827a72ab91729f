// Package memtransport is an in-process transport.Transport backed by a
// mutex-guarded in-memory log per subject, for tests and single-process
// deployments. Production deployments use redistransport instead.
package memtransport

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/flyingrobots/gbe/internal/obs"
	"github.com/flyingrobots/gbe/internal/transport"
)

var _ transport.Transport = (*Transport)(nil)

// Config tunes the in-memory transport.
type Config struct {
	MaxPayloadSize int
}

// DefaultConfig matches the abstract contract's 1 MiB default.
func DefaultConfig() Config {
	return Config{MaxPayloadSize: transport.DefaultMaxPayloadSize}
}

// Transport is an in-process, single-binary implementation of
// transport.Transport. All state lives in a mutex-guarded store; there is
// no network or persistence boundary.
type Transport struct {
	store  *streamStore
	config Config
	closed atomic.Bool
}

// New returns a ready-to-use in-memory transport.
func New(config Config) *Transport {
	return &Transport{store: newStreamStore(), config: config}
}

func (t *Transport) checkClosed() error {
	if t.closed.Load() {
		return transport.ErrClosed
	}
	return nil
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

	t.store.mu.Lock()
	stream := t.store.getOrCreateStream(subject)
	idx := len(stream.messages)
	stream.idIndex[envelope.MessageID] = idx
	stream.messages = append(stream.messages, envelope)
	stream.notify.broadcast()
	t.store.mu.Unlock()

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

	t.store.mu.Lock()
	stream := t.store.getOrCreateStream(subject)

	var cursor *int
	switch {
	case resolved.StartFrom.IsLatest():
		if n := len(stream.messages); n > 0 {
			c := n - 1
			cursor = &c
		}
	case resolved.StartFrom.IsEarliest():
		cursor = nil
	default:
		if ts, ok := resolved.StartFrom.Timestamp(); ok {
			for i := len(stream.messages) - 1; i >= 0; i-- {
				if stream.messages[i].Timestamp < ts {
					c := i
					cursor = &c
					break
				}
			}
		} else if id, ok := resolved.StartFrom.ID(); ok {
			if idx, ok := stream.idIndex[id]; ok {
				c := idx
				cursor = &c
			}
		}
	}

	if _, exists := stream.groups[group]; !exists {
		stream.groups[group] = newConsumerGroup(cursor)
	}
	notify := stream.notify
	t.store.mu.Unlock()

	go runConsumerLoop(subCtx, consumerParams{
		store:   t.store,
		subject: subject,
		group:   group,
		handler: handler,
		opts:    resolved,
		active:  active,
		notify:  notify,
	})

	return &memorySubscription{cancel: cancel, active: active}, nil
}

func (t *Transport) EnsureStream(ctx context.Context, config transport.StreamConfig) error {
	if err := t.checkClosed(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	stream := t.store.getOrCreateStream(config.Subject)
	cfg := config
	stream.config = &cfg
	return nil
}

func (t *Transport) TrimStream(ctx context.Context, subject string, maxAge time.Duration) (uint64, error) {
	if err := t.checkClosed(); err != nil {
		return 0, err
	}

	nowMs := time.Now().UnixMilli()
	cutoff := nowMs - maxAge.Milliseconds()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	stream, ok := t.store.streams[subject]
	if !ok {
		return 0, nil
	}

	expiredCount := 0
	for _, env := range stream.messages {
		if env.Timestamp <= cutoff {
			expiredCount++
		} else {
			break
		}
	}
	if expiredCount == 0 {
		return 0, nil
	}

	expiredIDs := make([]string, expiredCount)
	for i := 0; i < expiredCount; i++ {
		expiredIDs[i] = stream.messages[i].MessageID
	}
	for _, id := range expiredIDs {
		delete(stream.idIndex, id)
		for _, group := range stream.groups {
			delete(group.pending, id)
		}
	}

	stream.messages = stream.messages[expiredCount:]

	stream.idIndex = make(map[string]int, len(stream.messages))
	for i, env := range stream.messages {
		stream.idIndex[env.MessageID] = i
	}

	for _, group := range stream.groups {
		if group.cursor != nil {
			if *group.cursor < expiredCount {
				group.cursor = nil
			} else {
				c := *group.cursor - expiredCount
				group.cursor = &c
			}
		}
	}

	return uint64(expiredCount), nil
}

func (t *Transport) Ping(ctx context.Context) (bool, error) { return true, nil }

func (t *Transport) Close(ctx context.Context) error {
	t.closed.Store(true)
	return nil
}
