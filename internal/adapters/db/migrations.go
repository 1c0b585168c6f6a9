// internal/adapters/db/migrations.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// MigrationConfig selects where migrations come from and where the
// golang-migrate bookkeeping table lives.
type MigrationConfig struct {
	DatabaseURL      string
	SourcePath       string
	UseEmbedded      bool
	TableName        string
	SchemaName       string
	ForceDirty       bool
	StatementTimeout time.Duration
}

func (c *MigrationConfig) withDefaults() *MigrationConfig {
	out := *c
	if out.TableName == "" {
		out.TableName = "schema_migrations"
	}
	if out.SchemaName == "" {
		out.SchemaName = "public"
	}
	if out.StatementTimeout == 0 {
		out.StatementTimeout = 10 * time.Minute
	}
	return &out
}

// Migrator applies the register schema
type Migrator struct {
	migrate *migrate.Migrate
	config  *MigrationConfig
	logger  *slog.Logger
	db      *sql.DB
}

// NewMigrator opens a short-lived connection for schema changes
func NewMigrator(config *MigrationConfig, logger *slog.Logger) (*Migrator, error) {
	if config == nil {
		return nil, errors.New("migration config is required")
	}
	config = config.withDefaults()

	conn, err := sql.Open("pgx", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(2)
	conn.SetMaxIdleConns(2)

	m, err := newMigrate(conn, config)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Migrator{migrate: m, config: config, logger: logger, db: conn}, nil
}

func newMigrate(conn *sql.DB, config *MigrationConfig) (*migrate.Migrate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := postgres.WithInstance(conn, &postgres.Config{
		MigrationsTable:  config.TableName,
		SchemaName:       config.SchemaName,
		StatementTimeout: config.StatementTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	if !config.UseEmbedded {
		m, err := migrate.NewWithDatabaseInstance("file://"+config.SourcePath, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to load migrations from %s: %w", config.SourcePath, err)
		}
		return m, nil
	}

	src, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// Up applies every pending migration. A dirty schema is forced back to its
// recorded version first when ForceDirty is set.
func (m *Migrator) Up(ctx context.Context) error {
	version, dirty, err := m.Version(ctx)
	if err != nil {
		return err
	}
	if dirty {
		if !m.config.ForceDirty {
			return fmt.Errorf("schema is dirty at version %d", version)
		}
		m.logger.WarnContext(ctx, "forcing dirty migration", slog.Uint64("version", uint64(version)))
		if err := m.migrate.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	switch err := m.migrate.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		m.logger.InfoContext(ctx, "schema up to date", slog.Uint64("version", uint64(version)))
		return nil
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if latest, _, err := m.Version(ctx); err == nil {
		m.logger.InfoContext(ctx, "migrations applied",
			slog.Uint64("from_version", uint64(version)),
			slog.Uint64("to_version", uint64(latest)))
	}
	return nil
}

// Version returns the applied version. A fresh schema reports version 0.
func (m *Migrator) Version(_ context.Context) (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}
	return version, dirty, nil
}

// Status compares the applied version with the migrations built into the
// binary.
func (m *Migrator) Status(ctx context.Context) (*MigrationStatus, error) {
	version, dirty, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}

	applied, err := AppliedMigrations(ctx, m.db, m.config.SchemaName, m.config.TableName)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{
		CurrentVersion: version,
		IsDirty:        dirty,
		Applied:        applied,
		Pending:        []PendingMigration{},
	}
	if !m.config.UseEmbedded {
		return status, nil
	}

	known, err := EmbeddedMigrations()
	if err != nil {
		return nil, err
	}
	for _, mig := range known {
		if mig.Version > version {
			status.Pending = append(status.Pending, mig)
		}
	}
	return status, nil
}

// Close releases the migration source and the connection
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if err := errors.Join(sourceErr, dbErr); err != nil {
		return fmt.Errorf("failed to close migrator: %w", err)
	}
	if err := m.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// MigrationStatus represents the current status of migrations
type MigrationStatus struct {
	CurrentVersion uint               `json:"current_version"`
	IsDirty        bool               `json:"is_dirty"`
	Applied        []AppliedMigration `json:"applied"`
	Pending        []PendingMigration `json:"pending"`
}

// AppliedMigration represents an applied migration
type AppliedMigration struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// PendingMigration represents a pending migration
type PendingMigration struct {
	Version     uint   `json:"version"`
	Description string `json:"description"`
}

// AppliedMigrations reads the migrations table. golang-migrate keeps a single
// row holding the latest version.
func AppliedMigrations(ctx context.Context, db *sql.DB, schema, table string) ([]AppliedMigration, error) {
	query := fmt.Sprintf(`SELECT version, dirty FROM %s.%s ORDER BY version ASC`, schema, table)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make([]AppliedMigration, 0)
	for rows.Next() {
		var a AppliedMigration
		if err := rows.Scan(&a.Version, &a.Dirty); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		applied = append(applied, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate migrations: %w", err)
	}

	return applied, nil
}

// EmbeddedMigrations lists the versions compiled into the binary and checks
// that every up migration has a matching down migration.
func EmbeddedMigrations() ([]PendingMigration, error) {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, err
	}
	return ListMigrations(sub)
}

// ListMigrations parses golang-migrate file names in fsys and pairs up and down files.
func ListMigrations(fsys fs.FS) ([]PendingMigration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	ups := make(map[uint]string)
	downs := make(map[uint]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		mig, err := source.DefaultParse(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid migration file name %q: %w", entry.Name(), err)
		}
		switch mig.Direction {
		case source.Up:
			ups[mig.Version] = mig.Identifier
		case source.Down:
			downs[mig.Version] = true
		}
	}

	out := make([]PendingMigration, 0, len(ups))
	for version, name := range ups {
		if !downs[version] {
			return nil, fmt.Errorf("migration %d has no down file", version)
		}
		out = append(out, PendingMigration{Version: version, Description: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })

	return out, nil
}

// RunMigrationsWithRetry brings the schema up to date, retrying with a
// linear backoff while the database comes up.
func RunMigrationsWithRetry(ctx context.Context, config *MigrationConfig, logger *slog.Logger, maxRetries int) error {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			wait := time.Duration(attempt-1) * 2 * time.Second
			logger.InfoContext(ctx, "retrying migration",
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		if lastErr = migrateOnce(ctx, config, logger); lastErr == nil {
			return nil
		}
		logger.ErrorContext(ctx, "migration attempt failed",
			slog.String("error", lastErr.Error()),
			slog.Int("attempt", attempt))
	}

	return fmt.Errorf("migrations failed after %d attempts: %w", maxRetries, lastErr)
}

func migrateOnce(ctx context.Context, config *MigrationConfig, logger *slog.Logger) (err error) {
	migrator, err := NewMigrator(config, logger)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		err = errors.Join(err, migrator.Close())
	}()

	if status, statusErr := migrator.Status(ctx); statusErr == nil && len(status.Pending) > 0 {
		logger.InfoContext(ctx, "pending migrations",
			slog.Uint64("current_version", uint64(status.CurrentVersion)),
			slog.Int("pending", len(status.Pending)))
	}

	return migrator.Up(ctx)
}
