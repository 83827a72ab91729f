package emitter

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/flyingrobots/gbe/internal/transport"
)

type testEvent struct {
	Msg string `json:"msg"`
}

type published struct {
	subject string
	payload []byte
	opts    *transport.PublishOpts
}

type mockTransport struct {
	published []published
}

func (m *mockTransport) Publish(ctx context.Context, subject string, payload []byte, opts *transport.PublishOpts) (string, error) {
	m.published = append(m.published, published{subject: subject, payload: payload, opts: opts})
	return "msg-001", nil
}

func (m *mockTransport) Subscribe(ctx context.Context, subject, group string, handler transport.MessageHandler, opts *transport.SubscribeOpts) (transport.Subscription, error) {
	panic("not used in these tests")
}

func (m *mockTransport) EnsureStream(ctx context.Context, config transport.StreamConfig) error {
	panic("not used in these tests")
}

func (m *mockTransport) TrimStream(ctx context.Context, subject string, maxAge time.Duration) (uint64, error) {
	panic("not used in these tests")
}

func (m *mockTransport) Ping(ctx context.Context) (bool, error) { return true, nil }
func (m *mockTransport) Close(ctx context.Context) error        { return nil }

func TestEmitWrapsInDomainPayload(t *testing.T) {
	mt := &mockTransport{}
	e := New(mt, "operative", "op-123")

	_, err := e.Emit(context.Background(), "gbe.events.lifecycle.operative.started", 1, "start-op-123", testEvent{Msg: "hello"})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(mt.published) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(mt.published))
	}
	if mt.published[0].subject != "gbe.events.lifecycle.operative.started" {
		t.Fatalf("unexpected subject: %s", mt.published[0].subject)
	}

	decoded, err := DomainPayloadFromBytes[testEvent](mt.published[0].payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.V != 1 {
		t.Fatalf("expected v=1, got %d", decoded.V)
	}
	if decoded.ID != "start-op-123" {
		t.Fatalf("unexpected id: %s", decoded.ID)
	}
	if decoded.Data.Msg != "hello" {
		t.Fatalf("unexpected data: %+v", decoded.Data)
	}
	if decoded.TS <= 0 {
		t.Fatal("expected positive ts")
	}
}

func TestEmitTracedIncludesTraceID(t *testing.T) {
	mt := &mockTransport{}
	e := New(mt, "oracle", "orc-456")

	_, err := e.EmitTraced(context.Background(), "gbe.jobs.report.created", 1, "job-001", testEvent{Msg: "traced"}, "trace-abc")
	if err != nil {
		t.Fatalf("emit_traced: %v", err)
	}
	opts := mt.published[0].opts
	if opts == nil || opts.TraceID == nil || *opts.TraceID != "trace-abc" {
		t.Fatalf("expected trace id trace-abc, got %+v", opts)
	}
}

func TestAccessorsReturnIdentity(t *testing.T) {
	e := New(&mockTransport{}, "sentinel", "snt-789")
	if e.Component() != "sentinel" {
		t.Fatalf("unexpected component: %s", e.Component())
	}
	if e.InstanceID() != "snt-789" {
		t.Fatalf("unexpected instance id: %s", e.InstanceID())
	}
}

func TestDedupIDFormat(t *testing.T) {
	id := DedupID("operative", "op-123", "started")
	if !strings.HasPrefix(id, "operative-op-123-started-") {
		t.Fatalf("unexpected prefix: %s", id)
	}
	parts := strings.Split(id, "-")
	last := parts[len(parts)-1]
	if _, err := strconv.ParseInt(last, 10, 64); err != nil {
		t.Fatalf("expected trailing unix-millis timestamp, got %q", last)
	}
}
