package memtransport

import (
	"context"
	"sync/atomic"

	"github.com/flyingrobots/gbe/internal/transport"
)

var _ transport.Subscription = (*memorySubscription)(nil)

// memorySubscription cancels the backing consumer goroutine on Unsubscribe.
type memorySubscription struct {
	cancel context.CancelFunc
	active *atomic.Bool
}

func (s *memorySubscription) Unsubscribe(ctx context.Context) error {
	s.cancel()
	s.active.Store(false)
	return nil
}

func (s *memorySubscription) IsActive() bool { return s.active.Load() }
