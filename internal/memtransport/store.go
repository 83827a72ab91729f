package memtransport

import (
	"strings"
	"sync"

	"github.com/flyingrobots/gbe/internal/transport"
)

// streamStore is the single in-process table of subjects, their message
// logs, and their consumer groups. Every operation that touches streams
// or groups is done under mu.
type streamStore struct {
	mu      sync.Mutex
	streams map[string]*streamData
}

type streamData struct {
	// messages holds the log in insertion order; index is the cursor position.
	messages []transport.Envelope
	idIndex  map[string]int
	groups   map[string]*consumerGroup
	config   *transport.StreamConfig
	notify   *notifier
}

type consumerGroup struct {
	// cursor is the index of the last delivered message; nil means
	// "start from the beginning".
	cursor    *int
	pending   map[string]struct{}
	redeliver []string
}

func newStreamStore() *streamStore {
	return &streamStore{streams: make(map[string]*streamData)}
}

// getOrCreateStream must be called with mu held.
func (s *streamStore) getOrCreateStream(subject string) *streamData {
	stream, ok := s.streams[subject]
	if !ok {
		stream = &streamData{
			idIndex: make(map[string]int),
			groups:  make(map[string]*consumerGroup),
			notify:  newNotifier(),
		}
		s.streams[subject] = stream
	}
	return stream
}

func newConsumerGroup(cursor *int) *consumerGroup {
	return &consumerGroup{cursor: cursor, pending: make(map[string]struct{})}
}

// extractDomain returns the second dot-delimited token of subject, e.g.
// "gbe.tasks.email-send.queue" -> "tasks".
func extractDomain(subject string) string {
	parts := strings.Split(subject, ".")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[1]
}
