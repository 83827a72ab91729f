package memtransport

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/flyingrobots/gbe/internal/transport"
)

var _ transport.Message = (*memoryMessage)(nil)

// memoryMessage is handed to a MessageHandler for exactly one envelope.
// acked guards Ack/Nak/DeadLetter so only the first call takes effect.
type memoryMessage struct {
	envelope transport.Envelope
	subject  string
	group    string
	store    *streamStore
	acked    atomic.Bool
}

func (m *memoryMessage) Envelope() transport.Envelope { return m.envelope }
func (m *memoryMessage) Payload() []byte              { return m.envelope.Payload }

func (m *memoryMessage) Ack(ctx context.Context) error {
	if m.acked.Swap(true) {
		return nil
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if stream, ok := m.store.streams[m.subject]; ok {
		if cg, ok := stream.groups[m.group]; ok {
			delete(cg.pending, m.envelope.MessageID)
		}
	}
	return nil
}

func (m *memoryMessage) Nak(ctx context.Context, delay *time.Duration) error {
	if m.acked.Swap(true) {
		return nil
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if stream, ok := m.store.streams[m.subject]; ok {
		if cg, ok := stream.groups[m.group]; ok {
			cg.redeliver = append(cg.redeliver, m.envelope.MessageID)
		}
	}
	return nil
}

func (m *memoryMessage) DeadLetter(ctx context.Context, reason string) error {
	if m.acked.Swap(true) {
		return nil
	}

	domain := extractDomain(m.subject)
	dlSubject := "gbe._deadletter." + domain

	payload, err := json.Marshal(map[string]any{
		"original_envelope": m.envelope,
		"reason":            reason,
	})
	if err != nil {
		return &transport.SerializationError{Err: err}
	}
	dlEnvelope := transport.NewEnvelope(dlSubject, payload, m.envelope.TraceID)

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	dlStream := m.store.getOrCreateStream(dlSubject)
	idx := len(dlStream.messages)
	dlStream.idIndex[dlEnvelope.MessageID] = idx
	dlStream.messages = append(dlStream.messages, dlEnvelope)
	dlStream.notify.broadcast()

	if stream, ok := m.store.streams[m.subject]; ok {
		if cg, ok := stream.groups[m.group]; ok {
			delete(cg.pending, m.envelope.MessageID)
		}
	}

	return nil
}
