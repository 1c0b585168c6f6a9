// internal/core/ports/cache.go
package ports

import (
	"context"
	"time"
)

// CacheRepository is the shared cache behind lot listings and the
// idempotency guard. Values are stored JSON encoded.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	// GetOrSet decodes the cached value into dest, or stores and decodes
	// the result of fetch on a miss.
	GetOrSet(ctx context.Context, key string, dest interface{},
		fetch func() (interface{}, error), ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// SetNX stores value only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
}

// IdempotencyGuard marks an idempotency key as in flight so that a duplicate
// request arriving before the first one commits is refused.
type IdempotencyGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
