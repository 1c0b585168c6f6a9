// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/ammerola/minimarket-pos/internal/adapters/db"
	"github.com/ammerola/minimarket-pos/internal/adapters/spreadsheet"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/internal/pkg/config"
	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
)

func main() {
	var (
		file     = flag.String("file", "./lots.xlsx", "Workbook with one stock lot per row")
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun   = flag.Bool("dry-run", false, "Parse the workbook without touching the database")
		migrate  = flag.Bool("migrate", false, "Apply pending migrations before seeding")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "json")

	rows, rowErrs, err := spreadsheet.OpenLots(*file)
	if err != nil {
		slogger.Error("failed to read workbook",
			slog.String("file", *file),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, re := range rowErrs {
		slogger.Warn("skipping row",
			slog.Int("line", re.Line),
			slog.String("error", re.Err.Error()))
	}

	slogger.Info("workbook parsed",
		slog.String("file", *file),
		slog.Int("rows", len(rows)),
		slog.Int("rejected", len(rowErrs)))

	if *dryRun {
		for _, row := range rows {
			expires := "never"
			if row.ExpirationDate != nil {
				expires = row.ExpirationDate.Format(time.DateOnly)
			}
			slogger.Info("lot",
				slog.Int("line", row.Line),
				slog.String("product", row.ProductName),
				slog.Int("quantity", row.Quantity),
				slog.String("unit_price", row.SalePriceUnit.StringFixed(2)),
				slog.String("expires", expires))
		}
		return
	}

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if *migrate {
		if err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
			DatabaseURL: cfg.GetDatabaseURL(),
			UseEmbedded: true,
			TableName:   "schema_migrations",
			SchemaName:  "public",
		}, slogger, 3); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:              cfg.Database.Host,
		Port:              cfg.Database.Port,
		User:              cfg.Database.User,
		Password:          cfg.Database.Password,
		Database:          cfg.Database.Name,
		SSLMode:           cfg.Database.SSLMode,
		MaxConnections:    4,
		MinConnections:    1,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
		ConnectTimeout:    cfg.Database.ConnectTimeout,
		LockTimeout:       cfg.Sales.LockTimeout,
	}, slogger)
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	products := db.NewProductRepository(database, slogger)
	lots := services.NewLotService(
		db.NewStockLotRepository(database, slogger),
		products,
		nil,
		0,
		cfg.Sales.PricingPolicy(),
		slogger,
	)

	summary, err := spreadsheet.NewImporter(products, lots, slogger).Import(ctx, rows)
	if err != nil {
		slogger.Error("seeding aborted", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, failed := range summary.Failed {
		slogger.Warn("lot rejected",
			slog.Int("line", failed.Line),
			slog.String("error", failed.Err.Error()))
	}

	slogger.Info("seeding complete",
		slog.Int("products", summary.Products),
		slog.Int("lots", summary.Lots),
		slog.Int("failed", len(summary.Failed)))
}
