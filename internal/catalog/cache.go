package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	menuCacheKey    = "catalog:menu:v1"
	bannersCacheKey = "catalog:banners:v1"
)

// Cache keeps the public menu and banners in Redis. Concurrent misses on
// the same key share a single database load.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	loads  singleflight.Group
}

// NewCache builds the catalog cache. A nil client or non-positive ttl
// disables it.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Invalidate drops the public menu and banner entries.
func (c *Cache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Del(ctx, menuCacheKey, bannersCacheKey).Err()
}

// readThrough returns the cached value at key or runs load and stores its
// result. Redis failures are reported to warn and never fail the read.
func readThrough[T any](ctx context.Context, c *Cache, key string, warn func(error, string), load func(context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return load(ctx)
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if err = json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}
	if !errors.Is(err, redis.Nil) {
		warn(err, key)
	}

	v, err, _ := c.loads.Do(key, func() (any, error) {
		fresh, err := load(ctx)
		if err != nil {
			return fresh, err
		}
		if data, err := json.Marshal(fresh); err != nil {
			warn(err, key)
		} else if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			warn(err, key)
		}
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
