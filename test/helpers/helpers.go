// test/helpers/helpers.go
package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/minimarket-pos/internal/adapters/db"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/pkg/config"
)

// TestDB is a migrated PostgreSQL container owned by one test
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis pairs a miniredis server with a client connected to it. Tests
// drive expiry through Server.FastForward.
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger logs errors only, or everything under go test -v
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

const (
	testDBUser     = "register"
	testDBPassword = "register"
	testDBName     = "minimarket_test"
)

// SetupTestDB starts PostgreSQL in Docker, connects with a short lock
// timeout and applies the embedded migrations.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, resource := startPostgres(t)

	cfg := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               testDBUser,
		Password:           testDBPassword,
		Database:           testDBName,
		SSLMode:            "disable",
		MaxConnections:     10,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    5 * time.Minute,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     5 * time.Second,
		LockTimeout:        2 * time.Second,
		EnableQueryLogging: testing.Verbose(),
	}

	ctx := context.Background()
	var database *db.Database
	require.NoError(t, pool.Retry(func() (err error) {
		database, err = db.NewDatabase(ctx, cfg, TestLogger())
		return err
	}), "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	require.NoError(t, db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.URL(),
		UseEmbedded: true,
	}, TestLogger(), 3), "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   cfg,
	}
}

func startPostgres(t *testing.T) (*dockertest.Pool, *dockertest.Resource) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=" + testDBUser,
			"POSTGRES_PASSWORD=" + testDBPassword,
			"POSTGRES_DB=" + testDBName,
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})
	return pool, resource
}

// SetupTestRedis starts an in-process Redis for cache and guard tests
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &TestRedis{Client: client, Server: server}
}

// SetupMockDB returns a database/sql handle backed by sqlmock
func SetupMockDB(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock DB")
	t.Cleanup(func() { _ = conn.Close() })

	return mock, conn
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,

			StorageDriver: config.StorageMemory,
		},
		Database: config.DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "test",
			Password:       "test",
			Name:           "test_minimarket",
			SSLMode:        "disable",
			MaxConnections: 10,
			MinConnections: 2,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Sales: config.SalesConfig{
			WholesaleThreshold:   domain.DefaultWholesaleThreshold,
			WholesaleMarginFloor: 0.05,
			LockTimeout:          2 * time.Second,
			IdempotencyTTL:       10 * time.Minute,
			LotCacheTTL:          time.Minute,
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// CreateTestProduct creates a test product
func CreateTestProduct(overrides ...func(*domain.Product)) domain.Product {
	product := domain.Product{
		ID:        uuid.New(),
		Name:      "Leche Entera 1L",
		Brand:     "Colun",
		Type:      "lacteos",
		CreatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(&product)
	}

	return product
}

// CreateTestLot creates a valid lot with unit 1000, wholesale 800 and box 9000
func CreateTestLot(overrides ...func(*domain.StockLot)) domain.StockLot {
	expires := time.Now().UTC().AddDate(0, 1, 0).Truncate(24 * time.Hour)
	lot := domain.StockLot{
		ID:                 uuid.New(),
		ProductID:          uuid.New(),
		Barcode:            "7801234567890",
		InitialQuantity:    20,
		CurrentQuantity:    20,
		PurchasePrice:      decimal.NewFromInt(600),
		SalePriceUnit:      decimal.NewFromInt(1000),
		SalePriceBox:       decimal.NewFromInt(9000),
		SalePriceWholesale: decimal.NewNullDecimal(decimal.NewFromInt(800)),
		ExpirationDate:     &expires,
		CreatedAt:          time.Now().UTC(),
	}

	for _, override := range overrides {
		override(&lot)
	}

	return lot
}

// CreateTestLots creates count lots for the same product with staggered
// expirations.
func CreateTestLots(productID uuid.UUID, count int) []domain.StockLot {
	lots := make([]domain.StockLot, count)
	base := time.Now().UTC().Truncate(24 * time.Hour)

	for i := 0; i < count; i++ {
		lots[i] = CreateTestLot(func(l *domain.StockLot) {
			l.ProductID = productID
			l.Barcode = fmt.Sprintf("78000000%05d", i+1)
			expires := base.AddDate(0, 0, 10*(count-i))
			l.ExpirationDate = &expires
			l.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		})
	}

	return lots
}

// TruncateAllTables empties the register tables and restarts the ticket
// sequence at 1.
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE sale_line_items, sales, stock_lots, products RESTART IDENTITY CASCADE")
	require.NoError(t, err, "Failed to truncate tables")

	_, err = pool.Exec(context.Background(), "ALTER SEQUENCE sales_ticket_number_seq RESTART WITH 1")
	require.NoError(t, err, "Failed to reset ticket sequence")
}
