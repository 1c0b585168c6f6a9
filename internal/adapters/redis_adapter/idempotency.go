// internal/adapters/redis_adapter/idempotency.go
package redis_a

import (
	"context"
	"log/slog"
	"time"

	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// IdempotencyGuard marks sale idempotency keys as in flight with SETNX. The
// TTL bounds how long a crashed request can block retries of the same key.
type IdempotencyGuard struct {
	cache  ports.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.IdempotencyGuard = (*IdempotencyGuard)(nil)

// NewIdempotencyGuard creates a guard on top of cache
func NewIdempotencyGuard(cache ports.CacheRepository, ttl time.Duration, logger *slog.Logger) *IdempotencyGuard {
	return &IdempotencyGuard{
		cache:  cache,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "idempotency_guard")),
	}
}

// Acquire returns false when another request already holds key
func (g *IdempotencyGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.cache.SetNX(ctx, guardKey(key), time.Now().UTC().Format(time.RFC3339Nano), g.ttl)
	if err != nil {
		return false, err
	}
	if !ok {
		g.logger.InfoContext(ctx, "idempotency key already in flight", slog.String("idempotency_key", key))
	}
	return ok, nil
}

// Release frees key once the request settled either way
func (g *IdempotencyGuard) Release(ctx context.Context, key string) error {
	return g.cache.Delete(ctx, guardKey(key))
}

// guardKey namespaces sale keys away from lot listings
func guardKey(key string) string {
	return "idem:sale:" + key
}
