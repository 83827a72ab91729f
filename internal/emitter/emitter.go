package emitter

import (
	"context"
	"fmt"
	"time"

	"github.com/flyingrobots/gbe/internal/transport"
)

// EventEmitter is a convenience wrapper around a transport.Transport that
// handles DomainPayload[T] wrapping and serialization, so callers only
// supply the domain data.
type EventEmitter struct {
	transport  transport.Transport
	component  string
	instanceID string
}

// New returns an EventEmitter bound to a transport and component identity.
func New(t transport.Transport, component, instanceID string) *EventEmitter {
	return &EventEmitter{transport: t, component: component, instanceID: instanceID}
}

func (e *EventEmitter) Component() string  { return e.component }
func (e *EventEmitter) InstanceID() string { return e.instanceID }

// Transport exposes the underlying transport for subscribe/stream operations.
func (e *EventEmitter) Transport() transport.Transport { return e.transport }

// Emit wraps data in a DomainPayload[T] and publishes it to subject.
func (e *EventEmitter) Emit(ctx context.Context, subject string, schemaVersion uint32, dedupID string, data any) (string, error) {
	payload := NewDomainPayload(schemaVersion, dedupID, data)
	b, err := payload.ToBytes()
	if err != nil {
		return "", &transport.SerializationError{Err: err}
	}
	return e.transport.Publish(ctx, subject, b, nil)
}

// EmitTraced is Emit with an explicit trace id for cross-service correlation.
func (e *EventEmitter) EmitTraced(ctx context.Context, subject string, schemaVersion uint32, dedupID string, data any, traceID string) (string, error) {
	payload := NewDomainPayload(schemaVersion, dedupID, data)
	b, err := payload.ToBytes()
	if err != nil {
		return "", &transport.SerializationError{Err: err}
	}
	opts := &transport.PublishOpts{TraceID: &traceID}
	return e.transport.Publish(ctx, subject, b, opts)
}

// DedupID builds a dedup id of the form {component}-{instanceID}-{event}-{unixMillis}.
func DedupID(component, instanceID, event string) string {
	return fmt.Sprintf("%s-%s-%s-%d", component, instanceID, event, time.Now().UnixMilli())
}
