// internal/adapters/redis_adapter/cache.go
package redis_a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// Cache stores JSON values in Redis. Cached lot listings are advisory: stock
// is always re-read under lock when a sale settles.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// Statically assert that *Cache implements the CacheRepository interface.
var _ ports.CacheRepository = (*Cache)(nil)

// NewCache creates a new cache; ttl applies to Set.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// Set stores value under key with the default TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.write(ctx, key, data, c.ttl)
}

// Get decodes the value under key into dest
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.read(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// GetOrSet fills dest from the cache, or from fetch on a miss. A failed
// write after a successful fetch is logged and the fetched value returned.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{},
	fetch func() (interface{}, error), ttl time.Duration) error {

	data, err := c.read(ctx, key)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, dest); err == nil {
			return nil
		}
		// unreadable entry, likely written by an older build
		c.logger.WarnContext(ctx, "discarding undecodable cache entry", slog.String("key", key))
	case !errors.Is(err, ErrCacheMiss):
		return err
	}

	value, err := fetch()
	if err != nil {
		return fmt.Errorf("fetch %s: %w", key, err)
	}

	data, err = json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err := c.write(ctx, key, data, ttl); err != nil {
		c.logger.WarnContext(ctx, "failed to cache fetched value",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	return json.Unmarshal(data, dest)
}

// Delete removes keys from cache
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete cache keys",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
		return fmt.Errorf("redis del: %w", err)
	}

	c.logger.DebugContext(ctx, "cache invalidated", slog.Any("keys", keys))
	return nil
}

// SetNX sets a key only if it doesn't exist
func (c *Cache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal %s: %w", key, err)
	}

	ok, err := c.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to setnx",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (c *Cache) read(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.logger.DebugContext(ctx, "cache miss", slog.String("key", key))
		return nil, ErrCacheMiss
	case err != nil:
		c.logger.ErrorContext(ctx, "failed to read cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("redis get: %w", err)
	}
	c.logger.DebugContext(ctx, "cache hit", slog.String("key", key))
	return data, nil
}

func (c *Cache) write(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to write cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
