// internal/core/ports/database.go
package ports

import "context"

// Database is the readiness view of the sale store. Handlers only need to know
// whether sales can be persisted and how the pool is doing.
type Database interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
}
