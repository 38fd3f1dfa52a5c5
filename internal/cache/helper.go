// Package cache wraps Redis for read-through caching of tracking lookups and
// citizen records.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"idportal/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Cache is a nil-safe JSON cache over a Redis client. A Cache with no
// client behaves as a permanent miss.
type Cache struct {
	rdb *redis.Client
}

// New wraps rdb. rdb may be nil.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	s, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// epochTTL keeps invalidation epochs alive well past any single fetch.
const epochTTL = time.Hour

func epochKey(key string) string { return key + ":epoch" }

// fetchError marks a failure of the caller's fetch inside a WATCH block.
type fetchError struct{ err error }

func (e fetchError) Error() string { return e.err.Error() }

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// then stores dest with ttl. The store is skipped when Invalidate ran for key
// while fetch was in flight, so a reader cannot put back a view that a
// concurrent commit already replaced. Cache failures never fail the read.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return nil
	}
	if !c.Enabled() {
		return fetch()
	}

	fetched := false
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		fetched = true
		if err := fetch(); err != nil {
			return fetchError{err}
		}
		b, err := json.Marshal(dest)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, epochKey(key))

	var fe fetchError
	switch {
	case err == nil:
	case errors.As(err, &fe):
		return fe.err
	case errors.Is(err, redis.TxFailedErr):
		middleware.Logger.DebugContext(ctx, "cache fill skipped after invalidation", slog.String("key", key))
	default:
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		if !fetched {
			return fetch()
		}
	}
	return nil
}

// Invalidate removes keys and bumps their epochs so in-flight Aside fills for
// them are discarded. Errors are logged, not returned.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, keys...)
		for _, k := range keys {
			p.Incr(ctx, epochKey(k))
			p.Expire(ctx, epochKey(k), epochTTL)
		}
		return nil
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidate failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}
