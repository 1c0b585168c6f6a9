// internal/pkg/config/validators.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrMissingRequiredConfig is returned when a required setting is empty
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Validator checks a loaded configuration
type Validator interface {
	Validate(cfg *Config) error
}

var (
	_ Validator = (*BasicValidator)(nil)
	_ Validator = (*ProductionValidator)(nil)
)

// rules collects every violated rule so one start-up reports them all
type rules []error

func (r *rules) require(ok bool, format string, args ...interface{}) {
	if !ok {
		*r = append(*r, fmt.Errorf(format, args...))
	}
}

func (r rules) err() error {
	return errors.Join(r...)
}

// BasicValidator checks settings every environment needs
type BasicValidator struct{}

// Validate reports every invalid setting
func (v *BasicValidator) Validate(cfg *Config) error {
	var r rules

	// the in-memory driver never opens a connection
	if cfg.App.StorageDriver != StorageMemory {
		r = append(r, missingTagged(reflect.ValueOf(cfg.Database), "Database")...)
	}

	r.require(cfg.Database.MaxConnections >= cfg.Database.MinConnections,
		"database max_connections (%d) must be >= min_connections (%d)",
		cfg.Database.MaxConnections, cfg.Database.MinConnections)
	r.require(cfg.Redis.PoolSize > 0, "redis pool_size must be positive")
	r.require(cfg.Security.RateLimitRequests > 0, "rate_limit_requests must be positive")

	r.require(cfg.Sales.WholesaleThreshold >= 1,
		"sales wholesale_threshold must be at least 1, got %d", cfg.Sales.WholesaleThreshold)
	r.require(cfg.Sales.WholesaleMarginFloor >= 0 && cfg.Sales.WholesaleMarginFloor < 1,
		"sales wholesale_margin_floor must be in [0, 1), got %g", cfg.Sales.WholesaleMarginFloor)
	r.require(cfg.Sales.LockTimeout > 0, "sales lock_timeout must be positive")

	return r.err()
}

// ProductionValidator refuses settings that are only acceptable locally
type ProductionValidator struct{}

// Validate reports every setting unfit for production
func (v *ProductionValidator) Validate(cfg *Config) error {
	var r rules

	r.require(cfg.App.StorageDriver == StoragePostgres,
		"storage driver %q cannot be used in production", cfg.App.StorageDriver)
	if strings.HasPrefix(cfg.Database.Password, "MISSING_") {
		r = append(r, fmt.Errorf("%w: database password", ErrMissingRequiredConfig))
	}
	r.require(cfg.Database.SSLMode != "disable", "database SSL must be enabled in production")
	r.require(cfg.Security.SecureHeaders, "secure headers must be enabled in production")

	for _, origin := range cfg.Security.AllowedOrigins {
		r.require(origin != "*", "wildcard origin (*) not allowed in production")
	}

	return r.err()
}

// missingTagged returns one error per `required:"true"` field left empty,
// descending into nested structs.
func missingTagged(v reflect.Value, prefix string) []error {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	var missing []error
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field, meta := v.Field(i), t.Field(i)
		name := prefix + "." + meta.Name

		if meta.Tag.Get("required") == "true" && isUnset(field) {
			missing = append(missing, fmt.Errorf("%w: %s", ErrMissingRequiredConfig, name))
		}
		if field.Kind() == reflect.Struct {
			missing = append(missing, missingTagged(field, name)...)
		}
	}
	return missing
}

func isUnset(v reflect.Value) bool {
	if v.Kind() == reflect.String {
		return v.String() == "" || strings.HasPrefix(v.String(), "MISSING_")
	}
	return v.IsZero()
}
