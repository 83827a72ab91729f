package redistransport

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flyingrobots/gbe/internal/transport"
)

var _ transport.Message = (*redisMessage)(nil)

// redisMessage is handed to a MessageHandler for one stream entry. Ack and
// DeadLetter are idempotent via acked; Nak is claim-based (a no-op: the
// entry stays in the PEL and is reclaimed by XAUTOCLAIM after ack_timeout).
type redisMessage struct {
	envelope  transport.Envelope
	streamKey string
	group     string
	entryID   string
	rdb       redis.UniversalClient
	acked     atomic.Bool
}

func (m *redisMessage) Envelope() transport.Envelope { return m.envelope }
func (m *redisMessage) Payload() []byte              { return m.envelope.Payload }

func (m *redisMessage) Ack(ctx context.Context) error {
	if m.acked.Swap(true) {
		return nil
	}
	if err := m.rdb.XAck(ctx, m.streamKey, m.group, m.entryID).Err(); err != nil {
		return &transport.ConnectionError{Message: err.Error()}
	}
	return nil
}

func (m *redisMessage) Nak(ctx context.Context, delay *time.Duration) error {
	// Claim-based nak: leave the entry pending. It is reclaimed by the
	// consumer loop's XAUTOCLAIM pass once it has been idle ack_timeout.
	m.acked.Store(true)
	return nil
}

func (m *redisMessage) DeadLetter(ctx context.Context, reason string) error {
	if m.acked.Swap(true) {
		return nil
	}

	domain := extractDomain(m.streamKey)
	dlKey := "gbe:_deadletter:" + domain

	envelopeJSON, err := marshalEnvelope(m.envelope)
	if err != nil {
		return &transport.SerializationError{Err: err}
	}

	if err := m.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: dlKey,
		Values: map[string]any{"envelope": envelopeJSON, "reason": reason},
	}).Err(); err != nil {
		return &transport.ConnectionError{Message: err.Error()}
	}

	if err := m.rdb.XAck(ctx, m.streamKey, m.group, m.entryID).Err(); err != nil {
		return &transport.ConnectionError{Message: err.Error()}
	}
	return nil
}
