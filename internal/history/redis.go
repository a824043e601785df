package history

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "search:history:"

// RedisStore keeps each identity's history in a Redis list of JSON
// entries, newest first. Appends are read-modify-write (dedup needs the
// whole list), serialized per identity by a striped in-process lock;
// the rewrite itself goes through a single pipeline.
type RedisStore struct {
	rdb       *redis.Client
	cap       int
	retention time.Duration
	locks     [64]sync.Mutex
	now       func() time.Time
}

// NewRedisStore returns a RedisStore with the given cap and retention
// horizon; zero values fall back to the defaults.
func NewRedisStore(rdb *redis.Client, cap int, retention time.Duration) *RedisStore {
	if cap <= 0 {
		cap = DefaultCap
	}
	if retention <= 0 {
		retention = DefaultRetentionDays * 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, cap: cap, retention: retention, now: time.Now}
}

func (r *RedisStore) lock(identity string) *sync.Mutex {
	h := uint32(2166136261)
	for i := 0; i < len(identity); i++ {
		h ^= uint32(identity[i])
		h *= 16777619
	}
	return &r.locks[h%uint32(len(r.locks))]
}

// Append records an executed search, collapsing duplicate canonical
// queries and enforcing the per-identity cap.
func (r *RedisStore) Append(ctx context.Context, identity string, e Entry) error {
	if identity == "" {
		return ErrUnauthorized
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = r.now()
	}

	mu := r.lock(identity)
	mu.Lock()
	defer mu.Unlock()

	key := keyPrefix + identity
	existing, err := r.entries(ctx, key)
	if err != nil {
		return err
	}

	horizon := r.now().Add(-r.retention)
	kept := make([]Entry, 0, r.cap)
	kept = append(kept, e)
	for _, prev := range existing {
		if prev.Query == e.Query {
			continue
		}
		if prev.RecordedAt.Before(horizon) {
			continue
		}
		kept = append(kept, prev)
	}
	if len(kept) > r.cap {
		kept = kept[:r.cap]
	}

	payloads := make([]interface{}, 0, len(kept))
	for _, entry := range kept {
		raw, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		payloads = append(payloads, raw)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, payloads...)
	pipe.Expire(ctx, key, r.retention)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit entries, most recent first. Expired
// entries are filtered out lazily.
func (r *RedisStore) Recent(ctx context.Context, identity string, limit int) ([]Entry, error) {
	if identity == "" {
		return nil, ErrUnauthorized
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	entries, err := r.entries(ctx, keyPrefix+identity)
	if err != nil {
		return nil, err
	}

	horizon := r.now().Add(-r.retention)
	out := make([]Entry, 0, limit)
	for _, e := range entries {
		if e.RecordedAt.Before(horizon) {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Clear removes all entries for an identity.
func (r *RedisStore) Clear(ctx context.Context, identity string) error {
	if identity == "" {
		return ErrUnauthorized
	}
	return r.rdb.Del(ctx, keyPrefix+identity).Err()
}

// Sweep walks every history key and drops entries past the retention
// horizon. Run periodically by the scheduler; reads already filter
// lazily, so this only reclaims space.
func (r *RedisStore) Sweep(ctx context.Context) error {
	iter := r.rdb.Scan(ctx, 0, keyPrefix+"*", 256).Iterator()
	horizon := r.now().Add(-r.retention)
	for iter.Next(ctx) {
		key := iter.Val()
		identity := key[len(keyPrefix):]

		mu := r.lock(identity)
		mu.Lock()
		entries, err := r.entries(ctx, key)
		if err != nil {
			mu.Unlock()
			return err
		}
		kept := entries[:0]
		for _, e := range entries {
			if e.RecordedAt.Before(horizon) {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) != len(entries) {
			pipe := r.rdb.TxPipeline()
			pipe.Del(ctx, key)
			if len(kept) > 0 {
				payloads := make([]interface{}, 0, len(kept))
				for _, entry := range kept {
					raw, err := json.Marshal(entry)
					if err != nil {
						mu.Unlock()
						return err
					}
					payloads = append(payloads, raw)
				}
				pipe.RPush(ctx, key, payloads...)
				pipe.Expire(ctx, key, r.retention)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				mu.Unlock()
				return err
			}
		}
		mu.Unlock()
	}
	return iter.Err()
}

func (r *RedisStore) entries(ctx context.Context, key string) ([]Entry, error) {
	raw, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue // skip corrupt entries rather than failing the read
		}
		entries = append(entries, e)
	}
	return entries, nil
}
