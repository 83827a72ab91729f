package redistransport

import (
	"context"
	"sync/atomic"

	"github.com/flyingrobots/gbe/internal/transport"
)

var _ transport.Subscription = (*redisSubscription)(nil)

// redisSubscription cancels the backing consumer goroutine on Unsubscribe.
type redisSubscription struct {
	cancel context.CancelFunc
	active *atomic.Bool
}

func (s *redisSubscription) Unsubscribe(ctx context.Context) error {
	s.cancel()
	s.active.Store(false)
	return nil
}

func (s *redisSubscription) IsActive() bool { return s.active.Load() }
