// Package emitter wraps domain events in a versioned envelope and publishes
// them to a transport.Transport, mirroring the role the teacher's event
// producers play for job-queue events.
package emitter

import (
	"encoding/json"
	"time"
)

// DomainPayload is the enforced schema contract for every domain event
// carried on the transport: a schema version, an event timestamp, a
// consumer-defined dedup id, and the domain-specific data.
type DomainPayload[T any] struct {
	V    uint32 `json:"v"`
	TS   int64  `json:"ts"`
	ID   string `json:"id"`
	Data T      `json:"data"`
}

// NewDomainPayload builds a payload with ts set to now.
func NewDomainPayload[T any](v uint32, id string, data T) DomainPayload[T] {
	return DomainPayload[T]{
		V:    v,
		TS:   time.Now().UnixMilli(),
		ID:   id,
		Data: data,
	}
}

// ToBytes serializes the payload for transport publication.
func (p DomainPayload[T]) ToBytes() ([]byte, error) {
	return json.Marshal(p)
}

// DomainPayloadFromBytes deserializes a transport payload into a
// DomainPayload[T].
func DomainPayloadFromBytes[T any](b []byte) (DomainPayload[T], error) {
	var p DomainPayload[T]
	err := json.Unmarshal(b, &p)
	return p, err
}
