package sweeper

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/flyingrobots/gbe/internal/emitter"
	"github.com/flyingrobots/gbe/internal/jobs"
	"github.com/flyingrobots/gbe/internal/lock"
	"github.com/flyingrobots/gbe/internal/memtransport"
	"github.com/flyingrobots/gbe/internal/redisstatestore"
	"github.com/flyingrobots/gbe/internal/statestore"
	"github.com/flyingrobots/gbe/internal/transport"
)

func newTestRig(t *testing.T) (*redisstatestore.Store, redis.UniversalClient) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return redisstatestore.New(rdb), rdb
}

func TestReclaimsStuckClaimedTask(t *testing.T) {
	ctx := context.Background()
	store, rdb := newTestRig(t)

	key := jobs.TaskKey("email-send", "task_1")
	past := strconv.FormatInt(time.Now().Add(-time.Minute).UnixMilli(), 10)
	require.NoError(t, store.SetFields(ctx, key, map[string][]byte{
		jobs.TaskFields.State:     []byte(jobs.TaskClaimed.String()),
		jobs.TaskFields.TaskID:    []byte("task_1"),
		jobs.TaskFields.JobID:     []byte("job_1"),
		jobs.TaskFields.TaskType:  []byte("email-send"),
		jobs.TaskFields.TimeoutAt: []byte(past),
	}))

	tr := memtransport.New(memtransport.DefaultConfig())
	ev := emitter.New(tr, "sweeper", "inst-1")
	l := lock.New(rdb, "gbe.lock.sweeper", time.Minute)

	received := make(chan transport.Message, 1)
	_, err := tr.Subscribe(ctx, jobs.TaskProgressSubject("email-send"), "g", transport.MessageHandlerFunc(func(ctx context.Context, msg transport.Message) error {
		received <- msg
		return msg.Ack(ctx)
	}), &transport.SubscribeOpts{StartFrom: transport.Earliest()})
	require.NoError(t, err)

	sw := New(store, ev, l, Config{ScanInterval: time.Hour, LockTTL: time.Minute, LockKey: "gbe.lock.sweeper"}, nil)
	sw.scanOnce(ctx)

	v, found, err := store.GetField(ctx, key, jobs.TaskFields.State)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, jobs.TaskPending.String(), string(v))

	select {
	case msg := <-received:
		require.Contains(t, string(msg.Payload()), "reclaimed by sweeper")
	case <-time.After(time.Second):
		t.Fatal("expected a progress note to be published")
	}
}

func TestDoesNotReclaimBeforeTimeout(t *testing.T) {
	ctx := context.Background()
	store, rdb := newTestRig(t)

	key := jobs.TaskKey("email-send", "task_2")
	future := strconv.FormatInt(time.Now().Add(time.Hour).UnixMilli(), 10)
	require.NoError(t, store.SetFields(ctx, key, map[string][]byte{
		jobs.TaskFields.State:     []byte(jobs.TaskClaimed.String()),
		jobs.TaskFields.TimeoutAt: []byte(future),
	}))

	l := lock.New(rdb, "gbe.lock.sweeper", time.Minute)
	sw := New(store, nil, l, DefaultConfig(), nil)
	sw.scanOnce(ctx)

	v, found, err := store.GetField(ctx, key, jobs.TaskFields.State)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, jobs.TaskClaimed.String(), string(v))
}

func TestLockPreventsConcurrentScans(t *testing.T) {
	ctx := context.Background()
	store, rdb := newTestRig(t)

	other := lock.New(rdb, "gbe.lock.sweeper", time.Minute)
	held, err := other.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, held)

	key := jobs.TaskKey("email-send", "task_3")
	past := strconv.FormatInt(time.Now().Add(-time.Minute).UnixMilli(), 10)
	require.NoError(t, store.SetFields(ctx, key, map[string][]byte{
		jobs.TaskFields.State:     []byte(jobs.TaskClaimed.String()),
		jobs.TaskFields.TimeoutAt: []byte(past),
	}))

	sw := New(store, nil, lock.New(rdb, "gbe.lock.sweeper", time.Minute), DefaultConfig(), nil)
	sw.scanOnce(ctx)

	v, found, err := store.GetField(ctx, key, jobs.TaskFields.State)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, jobs.TaskClaimed.String(), string(v), "another instance holds the lock; this scan must not run")
}

var _ statestore.StateStore = (*redisstatestore.Store)(nil)
