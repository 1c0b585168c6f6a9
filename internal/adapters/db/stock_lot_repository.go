// internal/adapters/db/stock_lot_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

var lotColumns = []string{
	"id", "product_id", "barcode", "initial_quantity", "current_quantity",
	"purchase_price", "sale_price_unit", "sale_price_box", "sale_price_wholesale",
	"expiration_date", "created_at",
}

// stockLotRepository implements ports.StockLotRepository
type stockLotRepository struct {
	db     *Database
	psql   squirrel.StatementBuilderType
	logger *slog.Logger
}

// NewStockLotRepository creates a new stock lot repository
func NewStockLotRepository(db *Database, logger *slog.Logger) ports.StockLotRepository {
	return &stockLotRepository{
		db:     db,
		psql:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: logger.With(slog.String("repository", "stock_lot")),
	}
}

// FindByID returns a lot by id
func (r *stockLotRepository) FindByID(ctx context.Context, lotID uuid.UUID) (*domain.StockLot, error) {
	query, args, err := r.psql.Select(lotColumns...).
		From("stock_lots").
		Where(squirrel.Eq{"id": lotID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	lot, err := scanLot(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLotNotFound
		}
		return nil, translateError("find lot", err)
	}
	return &lot, nil
}

// FindByIDs returns the known lots among lotIDs without locking them
func (r *stockLotRepository) FindByIDs(ctx context.Context, lotIDs []uuid.UUID) (map[uuid.UUID]domain.StockLot, error) {
	out := make(map[uuid.UUID]domain.StockLot, len(lotIDs))
	if len(lotIDs) == 0 {
		return out, nil
	}

	query, args, err := r.psql.Select(lotColumns...).
		From("stock_lots").
		Where("id = ANY(?::uuid[])", uuidStrings(lotIDs)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	lots, err := queryLots(ctx, r.db.pool, query, args...)
	if err != nil {
		return nil, translateError("find lots", err)
	}
	for _, lot := range lots {
		out[lot.ID] = lot
	}
	return out, nil
}

// FindByProduct returns all lots of a product, oldest first
func (r *stockLotRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]domain.StockLot, error) {
	query, args, err := r.psql.Select(lotColumns...).
		From("stock_lots").
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	lots, err := queryLots(ctx, r.db.pool, query, args...)
	if err != nil {
		return nil, translateError("find product lots", err)
	}
	return lots, nil
}

// Save inserts a new lot. Stock of an existing lot only changes inside a
// sale unit of work, under its row lock.
func (r *stockLotRepository) Save(ctx context.Context, lot *domain.StockLot) error {
	lot.PrepareForStorage()

	query, args, err := r.psql.Insert("stock_lots").
		Columns(lotColumns...).
		Values(
			lot.ID, lot.ProductID, lot.Barcode, lot.InitialQuantity, lot.CurrentQuantity,
			lot.PurchasePrice, lot.SalePriceUnit, lot.SalePriceBox, lot.SalePriceWholesale,
			lot.ExpirationDate, lot.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.db.pool.Exec(ctx, query, args...); err != nil {
		return translateError("save lot", err)
	}

	r.logger.DebugContext(ctx, "lot saved",
		slog.String("lot_id", lot.ID.String()),
		slog.String("product_id", lot.ProductID.String()),
		slog.Int("current_quantity", lot.CurrentQuantity))

	return nil
}

// Delete removes a lot that no sale references
func (r *stockLotRepository) Delete(ctx context.Context, lotID uuid.UUID) error {
	query, args, err := r.psql.Delete("stock_lots").
		Where(squirrel.Eq{"id": lotID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	tag, err := r.db.pool.Exec(ctx, query, args...)
	if err != nil {
		return translateError("delete lot", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

// HasSales reports whether any line item references the lot
func (r *stockLotRepository) HasSales(ctx context.Context, lotID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM sale_line_items WHERE lot_id = $1)`, lotID).Scan(&exists)
	if err != nil {
		return false, translateError("check lot sales", err)
	}
	return exists, nil
}

func queryLots(ctx context.Context, q querier, query string, args ...any) ([]domain.StockLot, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []domain.StockLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

func scanLot(row pgx.Row) (domain.StockLot, error) {
	var lot domain.StockLot
	err := row.Scan(
		&lot.ID, &lot.ProductID, &lot.Barcode, &lot.InitialQuantity, &lot.CurrentQuantity,
		&lot.PurchasePrice, &lot.SalePriceUnit, &lot.SalePriceBox, &lot.SalePriceWholesale,
		&lot.ExpirationDate, &lot.CreatedAt,
	)
	return lot, err
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
