package activity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/keyxmakerx/bizledger/internal/metrics"
)

// nameCachePrefix is the Redis key prefix for cached entity lookups.
const nameCachePrefix = "entity_name:"

// CachedLookup wraps an EntityLookup with a Redis cache so names survive
// across feed loads. Only successful lookups are cached; a miss is retried
// on the next batch. Redis errors degrade to the wrapped lookup.
type CachedLookup struct {
	next  EntityLookup
	redis *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedLookup creates a caching decorator. A nil client or a
// non-positive TTL disables caching.
func NewCachedLookup(next EntityLookup, rdb *redis.Client, ttl time.Duration) EntityLookup {
	if rdb == nil || ttl <= 0 {
		return next
	}
	return &CachedLookup{next: next, redis: rdb, ttl: ttl}
}

// FindTask returns the cached task or loads it.
func (c *CachedLookup) FindTask(ctx context.Context, id string) (*TaskRef, error) {
	return cached(ctx, c, "task:"+id, func() (*TaskRef, error) {
		return c.next.FindTask(ctx, id)
	})
}

// FindProject returns the cached project or loads it.
func (c *CachedLookup) FindProject(ctx context.Context, id string) (*NamedRef, error) {
	return cached(ctx, c, "project:"+id, func() (*NamedRef, error) {
		return c.next.FindProject(ctx, id)
	})
}

// FindCustomer returns the cached customer or loads it.
func (c *CachedLookup) FindCustomer(ctx context.Context, id string) (*NamedRef, error) {
	return cached(ctx, c, "customer:"+id, func() (*NamedRef, error) {
		return c.next.FindCustomer(ctx, id)
	})
}

// FindOrder returns the cached order or loads it.
func (c *CachedLookup) FindOrder(ctx context.Context, id string) (*NamedRef, error) {
	return cached(ctx, c, "order:"+id, func() (*NamedRef, error) {
		return c.next.FindOrder(ctx, id)
	})
}

// FindProduct returns the cached product or loads it.
func (c *CachedLookup) FindProduct(ctx context.Context, id string) (*NamedRef, error) {
	return cached(ctx, c, "product:"+id, func() (*NamedRef, error) {
		return c.next.FindProduct(ctx, id)
	})
}

// FindDepartment returns the cached department or loads it.
func (c *CachedLookup) FindDepartment(ctx context.Context, id string) (*NamedRef, error) {
	return cached(ctx, c, "department:"+id, func() (*NamedRef, error) {
		return c.next.FindDepartment(ctx, id)
	})
}

// FindWarranty returns the cached warranty or loads it.
func (c *CachedLookup) FindWarranty(ctx context.Context, id string) (*NamedRef, error) {
	return cached(ctx, c, "warranty:"+id, func() (*NamedRef, error) {
		return c.next.FindWarranty(ctx, id)
	})
}

// ListUsers returns the cached user directory or loads it.
func (c *CachedLookup) ListUsers(ctx context.Context) ([]UserRef, error) {
	return cached(ctx, c, "users", func() ([]UserRef, error) {
		return c.next.ListUsers(ctx)
	})
}


// cached reads key from Redis or calls load and stores its result.
// Concurrent misses on one key share a single load.
func cached[T any](ctx context.Context, c *CachedLookup, key string, load func() (T, error)) (T, error) {
	key = nameCachePrefix + key

	if v, ok := readCached[T](ctx, c, key); ok {
		return v, nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		// Double-check after winning the race: the previous leader may have
		// just filled the entry.
		if v, ok := readCached[T](ctx, c, key); ok {
			return v, nil
		}

		v, err := load()
		if err != nil {
			return v, err
		}
		writeCached(ctx, c, key, v)
		return v, nil
	})
	v, _ := val.(T)
	return v, err
}

// readCached decodes the entry at key. A corrupt entry counts as a miss and
// is overwritten by the next load.
func readCached[T any](ctx context.Context, c *CachedLookup, key string) (T, bool) {
	var v T
	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, &v); jsonErr == nil {
			metrics.NameCache.WithLabelValues("hit").Inc()
			return v, true
		}
		metrics.NameCache.WithLabelValues("miss").Inc()
	case errors.Is(err, redis.Nil):
		metrics.NameCache.WithLabelValues("miss").Inc()
	default:
		metrics.NameCache.WithLabelValues("error").Inc()
		slog.Warn("entity name cache read failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
	var zero T
	return zero, false
}

// writeCached stores v under key. Nil results are not cached.
func writeCached[T any](ctx context.Context, c *CachedLookup, key string, v T) {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("entity name cache write failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
}
