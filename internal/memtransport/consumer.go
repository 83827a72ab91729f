package memtransport

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/flyingrobots/gbe/internal/obs"
	"github.com/flyingrobots/gbe/internal/transport"
)

type consumerParams struct {
	store   *streamStore
	subject string
	group   string
	handler transport.MessageHandler
	opts    *transport.SubscribeOpts
	active  *atomic.Bool
	notify  *notifier
}

// runConsumerLoop drives one (subject, group) subscription until ctx is
// cancelled. On each iteration it registers the wake channel before
// collecting a batch, so a publish that lands between the empty collect
// and the select can never be missed.
func runConsumerLoop(ctx context.Context, p consumerParams) {
	defer p.active.Store(false)

	for {
		if ctx.Err() != nil {
			return
		}

		woken := p.notify.wait()

		batch := collectBatch(p.store, p.subject, p.group, p.opts)

		if len(batch) == 0 {
			select {
			case <-woken:
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		for _, envelope := range batch {
			if ctx.Err() != nil {
				return
			}

			msg := &memoryMessage{
				envelope: envelope,
				subject:  p.subject,
				group:    p.group,
				store:    p.store,
			}

			spanCtx, span := obs.ContextWithMessageSpan(ctx, envelope.Subject, envelope.MessageID, envelope.TraceID)
			if err := p.handler.Handle(spanCtx, msg); err != nil {
				obs.RecordError(spanCtx, err)
				_ = msg.Nak(ctx, nil)
			} else {
				obs.SetSpanSuccess(spanCtx)
			}
			span.End()
		}
	}
}

// collectBatch pulls up to opts.BatchSize envelopes for (subject, group),
// redelivering nak'd messages first, then advancing the cursor over new
// ones. It never exceeds the group's remaining in-flight capacity.
func collectBatch(store *streamStore, subject, group string, opts *transport.SubscribeOpts) []transport.Envelope {
	store.mu.Lock()
	defer store.mu.Unlock()

	stream, ok := store.streams[subject]
	if !ok {
		return nil
	}
	cg, ok := stream.groups[group]
	if !ok {
		return nil
	}

	if len(cg.pending) >= opts.MaxInflight {
		return nil
	}

	remaining := opts.MaxInflight - len(cg.pending)
	take := opts.BatchSize
	if remaining < take {
		take = remaining
	}

	var batch []transport.Envelope

	for len(batch) < take && len(cg.redeliver) > 0 {
		msgID := cg.redeliver[0]
		cg.redeliver = cg.redeliver[1:]
		if idx, ok := stream.idIndex[msgID]; ok {
			batch = append(batch, stream.messages[idx])
		}
	}

	if len(batch) < take {
		start := 0
		if cg.cursor != nil {
			start = *cg.cursor + 1
		}
		end := start + (take - len(batch))
		if end > len(stream.messages) {
			end = len(stream.messages)
		}
		for i := start; i < end; i++ {
			envelope := stream.messages[i]
			if _, pending := cg.pending[envelope.MessageID]; !pending {
				cg.pending[envelope.MessageID] = struct{}{}
				idx := i
				cg.cursor = &idx
				batch = append(batch, envelope)
			}
		}
	}

	return batch
}
