package redistransport

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flyingrobots/gbe/internal/obs"
	"github.com/flyingrobots/gbe/internal/transport"
)

// consumerParams bundles everything one subscribe call's driver goroutine
// needs; mirrors memtransport's consumerParams shape for the same contract.
type consumerParams struct {
	rdb        redis.UniversalClient
	streamKey  string
	group      string
	consumerID string
	handler    transport.MessageHandler
	opts       *transport.SubscribeOpts
	active     *atomic.Bool
	log        *zap.Logger
}

func startIDFor(pos transport.StartPosition) string {
	switch {
	case pos.IsLatest():
		return "$"
	case pos.IsEarliest():
		return "0"
	default:
		if id, ok := pos.ID(); ok {
			return id
		}
		if ts, ok := pos.Timestamp(); ok {
			return strconv.FormatInt(ts, 10) + "-0"
		}
		return "$"
	}
}

func createGroup(ctx context.Context, rdb redis.UniversalClient, streamKey, group, startID string) error {
	err := rdb.XGroupCreateMkStream(ctx, streamKey, group, startID).Err()
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}
	return &transport.StreamError{Message: err.Error()}
}

func runConsumerLoop(ctx context.Context, p consumerParams) {
	log := p.log
	if log == nil {
		log = zap.NewNop()
	}

	startID := startIDFor(p.opts.StartFrom)
	if err := createGroup(ctx, p.rdb, p.streamKey, p.group, startID); err != nil {
		log.Error("failed to create consumer group", obs.String("stream", p.streamKey), obs.String("group", p.group), obs.Err(err))
		p.active.Store(false)
		return
	}

	ackTimeout := p.opts.AckTimeout
	reclaimInterval := ackTimeout / 2
	lastReclaim := time.Now()

	for {
		if ctx.Err() != nil {
			break
		}

		pending, err := pendingCount(ctx, p.rdb, p.streamKey, p.group)
		if err == nil && pending >= int64(p.opts.MaxInflight) {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		if time.Since(lastReclaim) >= reclaimInterval {
			processReclaimed(ctx, p.rdb, p.streamKey, p.group, p.consumerID, ackTimeout, int64(p.opts.BatchSize), p.handler, log)
			lastReclaim = time.Now()
		}

		streams, err := p.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.group,
			Consumer: p.consumerID,
			Streams:  []string{p.streamKey, ">"},
			Count:    int64(p.opts.BatchSize),
			Block:    2 * time.Second,
		}).Result()

		switch {
		case err == redis.Nil:
			// Blocking read timed out with no new entries; not an error,
			// no backoff.
		case err != nil:
			if ctx.Err() == nil {
				log.Warn("XREADGROUP error", obs.String("stream", p.streamKey), obs.Err(err))
				time.Sleep(time.Second)
			}
		default:
			for _, stream := range streams {
				for _, entry := range stream.Messages {
					processEntry(ctx, p.rdb, p.streamKey, p.group, entry, p.handler, log)
				}
			}
		}
	}

	p.active.Store(false)
	log.Debug("consumer loop exited", obs.String("stream", p.streamKey), obs.String("group", p.group))
}

func pendingCount(ctx context.Context, rdb redis.UniversalClient, streamKey, group string) (int64, error) {
	summary, err := rdb.XPending(ctx, streamKey, group).Result()
	if err != nil {
		return 0, err
	}
	return summary.Count, nil
}

func processEntry(ctx context.Context, rdb redis.UniversalClient, streamKey, group string, entry redis.XMessage, handler transport.MessageHandler, log *zap.Logger) {
	raw, ok := entry.Values["envelope"].(string)
	if !ok {
		log.Warn("stream entry missing envelope field", obs.String("entry_id", entry.ID))
		ackPoisonEntry(ctx, rdb, streamKey, group, entry.ID, log)
		return
	}
	envelope, err := unmarshalEnvelope(raw)
	if err != nil {
		log.Warn("failed to deserialize envelope", obs.String("entry_id", entry.ID), obs.Err(err))
		ackPoisonEntry(ctx, rdb, streamKey, group, entry.ID, log)
		return
	}

	spanCtx, span := obs.ContextWithMessageSpan(ctx, envelope.Subject, envelope.MessageID, envelope.TraceID)
	defer span.End()

	msg := &redisMessage{envelope: envelope, streamKey: streamKey, group: group, entryID: entry.ID, rdb: rdb}
	if err := handler.Handle(spanCtx, msg); err != nil {
		obs.RecordError(spanCtx, err)
		log.Debug("handler returned error (claim-based nak)", obs.String("entry_id", entry.ID), obs.Err(err))
		return
	}
	obs.SetSpanSuccess(spanCtx)
}

// ackPoisonEntry acks an entry that can never be processed (missing or
// undeserializable envelope) so it does not stay in the PEL and get
// reclaimed by every XAUTOCLAIM pass forever.
func ackPoisonEntry(ctx context.Context, rdb redis.UniversalClient, streamKey, group, entryID string, log *zap.Logger) {
	if err := rdb.XAck(ctx, streamKey, group, entryID).Err(); err != nil {
		log.Warn("failed to ack poison entry", obs.String("entry_id", entryID), obs.Err(err))
	}
}

func processReclaimed(ctx context.Context, rdb redis.UniversalClient, streamKey, group, consumerID string, minIdle time.Duration, count int64, handler transport.MessageHandler, log *zap.Logger) {
	messages, _, err := rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   streamKey,
		Group:    group,
		Consumer: consumerID,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    count,
	}).Result()
	if err != nil {
		return
	}

	for _, entry := range messages {
		processEntry(ctx, rdb, streamKey, group, entry, handler, log)
	}
}
