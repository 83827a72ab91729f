// Package redisstatestore backs statestore.StateStore with Redis hashes:
// one hash per key, HGETALL/HGET/HSET/DEL/EXPIRE, a Lua script for
// atomic compare-and-swap, and cursor-driven SCAN for prefix queries.
package redisstatestore

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flyingrobots/gbe/internal/statestore"
)

var _ statestore.StateStore = (*Store)(nil)

// casScript atomically compares then swaps a single hash field. Returns 1
// on swap, 0 otherwise.
const casScript = `
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if cur == ARGV[2] then
    redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
    return 1
else
    return 0
end
`

// Store is a Redis-backed statestore.StateStore.
type Store struct {
	rdb    redis.UniversalClient
	closed atomic.Bool
}

// New wraps an existing client. The caller owns the client's lifecycle
// beyond Close, which only marks this Store unusable.
func New(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) checkClosed() error {
	if s.closed.Load() {
		return statestore.ErrClosed
	}
	return nil
}

func mapRedisErr(err error) error {
	if err == nil {
		return nil
	}
	return &statestore.ConnectionError{Message: err.Error()}
}

func (s *Store) Get(ctx context.Context, key string) (*statestore.Record, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}
	raw, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, mapRedisErr(err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	fields := make(map[string][]byte, len(raw))
	for k, v := range raw {
		fields[k] = []byte(v)
	}
	return &statestore.Record{Fields: fields}, nil
}

func (s *Store) Put(ctx context.Context, key string, record statestore.Record, ttl *time.Duration) error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	if len(record.Fields) == 0 {
		return nil
	}
	pairs := make(map[string]any, len(record.Fields))
	for k, v := range record.Fields {
		pairs[k] = v
	}
	if err := s.rdb.HSet(ctx, key, pairs).Err(); err != nil {
		return mapRedisErr(err)
	}
	if ttl != nil {
		if err := s.rdb.Expire(ctx, key, *ttl).Err(); err != nil {
			return mapRedisErr(err)
		}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return mapRedisErr(err)
	}
	return nil
}

func (s *Store) GetField(ctx context.Context, key, field string) ([]byte, bool, error) {
	if err := s.checkClosed(); err != nil {
		return nil, false, err
	}
	v, err := s.rdb.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, mapRedisErr(err)
	}
	return []byte(v), true, nil
}

func (s *Store) SetField(ctx context.Context, key, field string, value []byte) error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	if err := s.rdb.HSet(ctx, key, field, value).Err(); err != nil {
		return mapRedisErr(err)
	}
	return nil
}

func (s *Store) SetFields(ctx context.Context, key string, fields map[string][]byte) error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	pairs := make(map[string]any, len(fields))
	for k, v := range fields {
		pairs[k] = v
	}
	if err := s.rdb.HSet(ctx, key, pairs).Err(); err != nil {
		return mapRedisErr(err)
	}
	return nil
}

func (s *Store) CompareAndSwap(ctx context.Context, key, field string, expected, newValue []byte) (bool, error) {
	if err := s.checkClosed(); err != nil {
		return false, err
	}
	result, err := redis.NewScript(casScript).Run(ctx, s.rdb, []string{key}, field, expected, newValue).Int()
	if err != nil {
		return false, mapRedisErr(err)
	}
	return result == 1, nil
}

func (s *Store) Scan(ctx context.Context, prefix string, filter *statestore.ScanFilter) ([]statestore.ScanResult, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}

	pattern := prefix + "*"
	var (
		results []statestore.ScanResult
		cursor  uint64
	)
	maxResults := -1
	if filter != nil && filter.MaxResults != nil {
		maxResults = *filter.MaxResults
	}

	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, mapRedisErr(err)
		}

		for _, key := range keys {
			raw, err := s.rdb.HGetAll(ctx, key).Result()
			if err != nil {
				return nil, mapRedisErr(err)
			}
			if len(raw) == 0 {
				continue
			}
			fields := make(map[string][]byte, len(raw))
			for k, v := range raw {
				fields[k] = []byte(v)
			}

			if filter != nil {
				value, ok := fields[filter.Field]
				if !ok || !filter.Matches(value) {
					continue
				}
			}

			results = append(results, statestore.ScanResult{
				Key:    key,
				Record: statestore.Record{Fields: fields},
			})

			if maxResults >= 0 && len(results) >= maxResults {
				return results, nil
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return results, nil
}

func (s *Store) Ping(ctx context.Context) (bool, error) {
	pong, err := s.rdb.Ping(ctx).Result()
	if err != nil {
		return false, mapRedisErr(err)
	}
	return pong == "PONG", nil
}

func (s *Store) Close(ctx context.Context) error {
	s.closed.Store(true)
	return nil
}
