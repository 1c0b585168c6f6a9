// internal/adapters/db/sale_repository.go
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

var saleColumns = []string{
	"id", "seller_id", "subtotal", "discount_type", "discount_value",
	"discount_amount", "total_amount", "ticket_number", "idempotency_key", "created_at",
}

var lineItemColumns = []string{
	"sale_id", "product_id", "lot_id", "quantity_sold", "price_at_sale",
	"sale_format", "is_wholesale", "savings",
}

// saleRepository implements ports.SaleRepository
type saleRepository struct {
	db     *Database
	psql   squirrel.StatementBuilderType
	logger *slog.Logger
}

// NewSaleRepository creates a new sale ledger reader
func NewSaleRepository(db *Database, logger *slog.Logger) ports.SaleRepository {
	return &saleRepository{
		db:     db,
		psql:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger: logger.With(slog.String("repository", "sale")),
	}
}

// FindByID returns a committed sale with its items
func (r *saleRepository) FindByID(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error) {
	return r.findOne(ctx, squirrel.Eq{"id": saleID})
}

// FindByIdempotencyKey returns the sale committed with key
func (r *saleRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Sale, error) {
	return r.findOne(ctx, squirrel.Eq{"idempotency_key": key})
}

func (r *saleRepository) findOne(ctx context.Context, where squirrel.Eq) (*domain.Sale, error) {
	query, args, err := r.psql.Select(saleColumns...).
		From("sales").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	sale, err := scanSale(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSaleNotFound
		}
		return nil, translateError("find sale", err)
	}

	items, err := r.findItems(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	sale.Items = items

	return sale, nil
}

func (r *saleRepository) findItems(ctx context.Context, saleID uuid.UUID) ([]domain.SaleLineItem, error) {
	query, args, err := r.psql.Select(append([]string{"id"}, lineItemColumns...)...).
		From("sale_line_items").
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError("find sale items", err)
	}
	defer rows.Close()

	var items []domain.SaleLineItem
	for rows.Next() {
		var (
			item   domain.SaleLineItem
			format string
		)
		if err := rows.Scan(
			&item.ID, &item.SaleID, &item.ProductID, &item.LotID, &item.QuantitySold,
			&item.PriceAtSale, &format, &item.IsWholesale, &item.Savings,
		); err != nil {
			return nil, translateError("scan sale item", err)
		}
		item.SaleFormat = domain.SaleFormat(format)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("find sale items", err)
	}
	return items, nil
}

func scanSale(row pgx.Row) (*domain.Sale, error) {
	var (
		sale         domain.Sale
		discountType *string
	)
	if err := row.Scan(
		&sale.ID, &sale.SellerID, &sale.Subtotal, &discountType, &sale.DiscountValue,
		&sale.DiscountAmount, &sale.TotalAmount, &sale.TicketNumber, &sale.IdempotencyKey, &sale.CreatedAt,
	); err != nil {
		return nil, err
	}
	if discountType != nil {
		dt := domain.DiscountType(*discountType)
		sale.DiscountType = &dt
	}
	return &sale, nil
}
