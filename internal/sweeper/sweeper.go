// Package sweeper is the watcher harness named out of scope as business
// logic by spec.md §1 ("the watcher/sweeper that times out claims" is
// listed as an external collaborator): a ticker-scan-requeue loop, grounded
// on the teacher's internal/reaper/reaper.go, that composes
// transport.Transport, statestore.StateStore, and lock.Lock to demonstrate
// the external-collaborator contract rather than to promise production
// scheduling correctness.
package sweeper

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/flyingrobots/gbe/internal/emitter"
	"github.com/flyingrobots/gbe/internal/jobs"
	"github.com/flyingrobots/gbe/internal/lock"
	"github.com/flyingrobots/gbe/internal/statestore"
)

// Config tunes the sweeper's scan cadence. LockTTL and LockKey are not read
// by the Sweeper; the lock.Lock passed to New carries its own key and TTL.
type Config struct {
	ScanInterval time.Duration
	LockTTL      time.Duration
	LockKey      string
}

// DefaultConfig matches the teacher's reaper cadence (5s) with a lock TTL
// comfortably longer than one scan.
func DefaultConfig() Config {
	return Config{
		ScanInterval: 5 * time.Second,
		LockTTL:      30 * time.Second,
		LockKey:      "gbe.lock.sweeper",
	}
}

// Sweeper reclaims task records stuck in Claimed/Running past their
// recorded timeout, CAS-ing them back to Pending so a scheduler can
// re-dispatch them.
type Sweeper struct {
	store   statestore.StateStore
	emitter *emitter.EventEmitter
	lock    *lock.Lock
	cfg     Config
	log     *zap.Logger
}

// New returns a Sweeper. l is the singleton lock (only one sweeper
// instance in a fleet is active at a time).
func New(store statestore.StateStore, ev *emitter.EventEmitter, l *lock.Lock, cfg Config, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{store: store, emitter: ev, lock: l, cfg: cfg, log: log}
}

// Run ticks at cfg.ScanInterval until ctx is cancelled, taking the
// singleton lock before each scan and releasing it after.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

func (s *Sweeper) scanOnce(ctx context.Context) {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		s.log.Warn("sweeper lock acquire failed", zap.Error(err))
		return
	}
	if !held {
		return // another instance is active
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.log.Warn("sweeper lock release failed", zap.Error(err))
		}
	}()

	now := time.Now().UnixMilli()
	for _, state := range []jobs.TaskState{jobs.TaskClaimed, jobs.TaskRunning} {
		s.reclaimStuck(ctx, state, now)
	}
}

func (s *Sweeper) reclaimStuck(ctx context.Context, state jobs.TaskState, nowMs int64) {
	filter := &statestore.ScanFilter{
		Field: jobs.TaskFields.State,
		Op:    statestore.ScanEq,
		Value: []byte(state.String()),
	}
	results, err := s.store.Scan(ctx, "gbe.state.tasks.", filter)
	if err != nil {
		s.log.Warn("sweeper scan failed", zap.String("state", state.String()), zap.Error(err))
		return
	}

	for _, r := range results {
		timeoutRaw, ok := r.Record.Fields[jobs.TaskFields.TimeoutAt]
		if !ok {
			continue
		}
		timeoutMs, err := strconv.ParseInt(string(timeoutRaw), 10, 64)
		if err != nil || timeoutMs > nowMs {
			continue
		}

		ok, err = s.store.CompareAndSwap(ctx, r.Key, jobs.TaskFields.State, []byte(state.String()), []byte(jobs.TaskPending.String()))
		if err != nil {
			s.log.Warn("sweeper CAS failed", zap.String("key", r.Key), zap.Error(err))
			continue
		}
		if !ok {
			continue // lost the race to another writer; leave it be
		}

		s.log.Info("reclaimed stuck task", zap.String("key", r.Key), zap.String("from", state.String()))

		if s.emitter == nil {
			continue
		}
		taskID := jobs.TaskID(r.Record.Fields[jobs.TaskFields.TaskID])
		jobID := jobs.JobID(r.Record.Fields[jobs.TaskFields.JobID])
		taskType := string(r.Record.Fields[jobs.TaskFields.TaskType])
		dedup := emitter.DedupID("sweeper", s.lock.Token(), "task-reclaimed")
		note := jobs.TaskProgress{
			TaskID:  taskID,
			JobID:   jobID,
			Message: "reclaimed by sweeper: timed out in " + state.String(),
		}
		if _, err := s.emitter.Emit(ctx, jobs.TaskProgressSubject(taskType), 1, dedup, note); err != nil {
			s.log.Warn("sweeper emit failed", zap.String("key", r.Key), zap.Error(err))
		}
	}
}
