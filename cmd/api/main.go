// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/minimarket-pos/internal/adapters/db"
	"github.com/ammerola/minimarket-pos/internal/adapters/memory"
	redis_a "github.com/ammerola/minimarket-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/minimarket-pos/internal/adapters/spreadsheet"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/internal/handlers"
	"github.com/ammerola/minimarket-pos/internal/handlers/middleware"
	"github.com/ammerola/minimarket-pos/internal/pkg/config"
	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
	"github.com/ammerola/minimarket-pos/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting minimarket register backend",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("storage_driver", cfg.App.StorageDriver),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
		)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		// in-flight sales finish or roll back before the pool closes
		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	routes         handlers.Routes
}

func (d *dependencies) cleanup() {
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

// stores groups the storage ports the services need
type stores struct {
	uow      ports.SaleUnitOfWork
	lots     ports.StockLotRepository
	products ports.ProductCatalog
	sales    ports.SaleRepository
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}
	policy := cfg.Sales.PricingPolicy()

	var (
		st       stores
		database ports.Database
		inMemory bool
	)

	switch cfg.App.StorageDriver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage, sales are lost on restart")
		store := memory.NewStore()
		st = stores{uow: store, lots: store, products: store, sales: store.Sales()}
		inMemory = true

	default:
		pg, err := connectDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		deps.database = pg
		database = pg

		if cfg.Database.AutoMigrate {
			if err := runMigrations(ctx, cfg, logger); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		st = stores{
			uow:      db.NewSaleUnitOfWork(pg, logger),
			lots:     db.NewStockLotRepository(pg, logger),
			products: db.NewProductRepository(pg, logger),
			sales:    db.NewSaleRepository(pg, logger),
		}
	}

	// Redis backs the lot listing cache, the idempotency guard and the task
	// queue. None of them is needed to commit a sale.
	var cache ports.CacheRepository
	saleOpts := []services.SaleOption{}

	if client, err := connectRedis(ctx, cfg, logger); err != nil {
		logger.Warn("redis unavailable, running without cache, idempotency guard or task queue",
			slog.String("error", err.Error()))
	} else {
		deps.redisClient = client
		redisCache := redis_a.NewCache(client, cfg.Redis.TTL, logger)
		cache = redisCache
		saleOpts = append(saleOpts,
			services.WithIdempotencyGuard(redis_a.NewIdempotencyGuard(redisCache, cfg.Sales.IdempotencyTTL, logger)))

		asynqRedisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Asynq.RedisAddr,
			Password: cfg.Asynq.RedisPassword,
			DB:       cfg.Asynq.RedisDB,
		}
		deps.asynqClient = asynq.NewClient(asynqRedisOpt)
		deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)
		saleOpts = append(saleOpts,
			services.WithEventPublisher(workers.NewSalePublisher(deps.asynqClient, cfg.Asynq.RetryMax, logger)))
	}

	saleService := services.NewSaleService(st.uow, st.lots, st.sales, policy, logger, saleOpts...)
	lotService := services.NewLotService(st.lots, st.products, cache, cfg.Sales.LotCacheTTL, policy, logger)
	cartService := services.NewCartService(st.lots, st.products, policy, logger)

	if inMemory && cfg.App.SeedFile != "" {
		if err := seedLots(ctx, cfg.App.SeedFile, st.products, lotService, logger); err != nil {
			return nil, err
		}
	}

	deps.routes = handlers.Routes{
		Health: handlers.NewHealthHandler(database, deps.redisClient, deps.asynqInspector, cfg, logger),
		Sales:  handlers.NewSaleHandler(saleService, logger),
		Carts:  handlers.NewCartHandler(cartService, logger),
		Lots:   handlers.NewLotHandler(lotService, logger),
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		LockTimeout:        cfg.Sales.LockTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return database, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	logger.Info("connecting to Redis",
		slog.String("address", cfg.GetRedisAddress()),
	)

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		PoolTimeout:  cfg.Redis.PoolTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// seedLots loads a lot sheet into the in-memory store
func seedLots(ctx context.Context, path string, products ports.ProductCatalog, lots ports.LotService, logger *slog.Logger) error {
	rows, rowErrs, err := spreadsheet.OpenLots(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	for _, re := range rowErrs {
		logger.Warn("skipping seed row",
			slog.Int("line", re.Line),
			slog.String("error", re.Err.Error()))
	}

	summary, err := spreadsheet.NewImporter(products, lots, logger).Import(ctx, rows)
	if err != nil {
		return fmt.Errorf("failed to seed lots: %w", err)
	}

	logger.Info("seeded in-memory store",
		slog.String("file", path),
		slog.Int("products", summary.Products),
		slog.Int("lots", summary.Lots),
		slog.Int("failed", len(summary.Failed)),
	)
	return nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	deps.routes.Register(mux)

	mws := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.SellerID(cfg.Security.SellerIDHeader),
		middleware.Logger(logger),
	}
	if cfg.Security.RateLimitRequests > 0 {
		mws = append(mws, middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		mws = append(mws, middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders)
	}
	mws = append(mws, middleware.MaxBody(cfg.Server.MaxBodyBytes))

	return &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           middleware.Chain(mux, mws...),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		UseEmbedded: true,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, logger, 3)
}
