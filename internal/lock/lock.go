// Package lock provides a named advisory distributed lock backed by a
// Redis string key, used to keep singleton jobs (like the
// sweeper) to one active instance in a fleet.
package lock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// releaseScript performs an atomic check-and-delete: only the holder whose
// token is still current may release the lock.
const releaseScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
else
    return 0
end
`

// Lock is a single named advisory lock. Lost locks (TTL expiry) are not
// auto-extended; re-acquisition is the caller's choice.
type Lock struct {
	rdb   redis.UniversalClient
	key   string
	token string
	ttl   time.Duration
}

// New returns a Lock over key with the given TTL. The fencing token is
// "{hostname}-{ULID}", unique per Lock instance.
func New(rdb redis.UniversalClient, key string, ttl time.Duration) *Lock {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	token := fmt.Sprintf("%s-%s", host, ulid.Make().String())
	return &Lock{rdb: rdb, key: key, token: token, ttl: ttl}
}

// Token returns this Lock instance's fencing token.
func (l *Lock) Token() string { return l.token }

// Acquire is a conditional set-if-absent with TTL: SET key token NX PX ttl.
// Reports whether this caller now holds the lock.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lock acquire: %w", err)
	}
	return ok, nil
}

// Release removes the key iff it still carries this Lock's token, via an
// atomic Lua check-and-delete. A no-op if the lock was already lost to TTL
// expiry and re-acquired by another instance.
func (l *Lock) Release(ctx context.Context) error {
	if err := redis.NewScript(releaseScript).Run(ctx, l.rdb, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("lock release: %w", err)
	}
	return nil
}
