// internal/adapters/db/sale_unit_of_work.go
package db

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// saleUnitOfWork runs sale settlement inside one PostgreSQL transaction
type saleUnitOfWork struct {
	db     *Database
	logger *slog.Logger
}

// NewSaleUnitOfWork creates a unit of work backed by PostgreSQL transactions.
// Row locks taken through the SaleTx are bounded by Config.LockTimeout.
func NewSaleUnitOfWork(db *Database, logger *slog.Logger) ports.SaleUnitOfWork {
	return &saleUnitOfWork{
		db:     db,
		logger: logger.With(slog.String("repository", "sale_unit_of_work")),
	}
}

// Execute runs fn in a read committed transaction. Any error from fn, or a
// failed commit, leaves the database untouched.
func (u *saleUnitOfWork) Execute(ctx context.Context, fn func(tx ports.SaleTx) error) error {
	err := u.db.TransactionWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&saleTx{
			tx:   tx,
			psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		})
	})
	return translateError("sale transaction", err)
}

// saleTx implements ports.SaleTx on a pgx transaction
type saleTx struct {
	tx   pgx.Tx
	psql squirrel.StatementBuilderType
}

// LockLots takes FOR UPDATE row locks in id order
func (t *saleTx) LockLots(ctx context.Context, lotIDs []uuid.UUID) (map[uuid.UUID]domain.StockLot, error) {
	out := make(map[uuid.UUID]domain.StockLot, len(lotIDs))
	if len(lotIDs) == 0 {
		return out, nil
	}

	ids := append([]uuid.UUID(nil), lotIDs...)
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	query, args, err := t.psql.Select(lotColumns...).
		From("stock_lots").
		Where("id = ANY(?::uuid[])", uuidStrings(ids)).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	lots, err := queryLots(ctx, t.tx, query, args...)
	if err != nil {
		return nil, translateError("lock lots", err)
	}
	for _, lot := range lots {
		out[lot.ID] = lot
	}
	return out, nil
}

// DecrementLot subtracts quantity from a locked lot. The guard in the WHERE
// clause refuses to drive stock negative even if the caller skipped its check.
func (t *saleTx) DecrementLot(ctx context.Context, lotID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return domain.NewValidationError(fmt.Sprintf("decrement of lot %s must be at least 1, got %d", lotID, quantity))
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE stock_lots
		    SET current_quantity = current_quantity - $2
		  WHERE id = $1 AND current_quantity >= $2`,
		lotID, quantity)
	if err != nil {
		return translateError("decrement lot", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("decrement lot %s by %d: %w", lotID, quantity, domain.ErrNegativeStockLevel)
	}
	return nil
}

// InsertSale stores the header. The ticket number comes from the sequence.
func (t *saleTx) InsertSale(ctx context.Context, sale *domain.Sale) error {
	var discountType *string
	if sale.DiscountType != nil {
		s := string(*sale.DiscountType)
		discountType = &s
	}

	query, args, err := t.psql.Insert("sales").
		Columns("id", "seller_id", "subtotal", "discount_type", "discount_value",
			"discount_amount", "total_amount", "idempotency_key").
		Values(sale.ID, sale.SellerID, sale.Subtotal, discountType, sale.DiscountValue,
			sale.DiscountAmount, sale.TotalAmount, sale.IdempotencyKey).
		Suffix("RETURNING ticket_number, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if err := t.tx.QueryRow(ctx, query, args...).Scan(&sale.TicketNumber, &sale.CreatedAt); err != nil {
		return translateError("insert sale", err)
	}
	return nil
}

// InsertLineItems stores all items in one statement and assigns their ids
func (t *saleTx) InsertLineItems(ctx context.Context, items []domain.SaleLineItem) error {
	if len(items) == 0 {
		return nil
	}

	qb := t.psql.Insert("sale_line_items").Columns(lineItemColumns...)
	for _, item := range items {
		qb = qb.Values(item.SaleID, item.ProductID, item.LotID, item.QuantitySold,
			item.PriceAtSale, string(item.SaleFormat), item.IsWholesale, item.Savings)
	}

	query, args, err := qb.Suffix("RETURNING id").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return translateError("insert sale items", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i < len(items) {
			if err := rows.Scan(&items[i].ID); err != nil {
				return translateError("insert sale items", err)
			}
		}
		i++
	}
	if err := rows.Err(); err != nil {
		return translateError("insert sale items", err)
	}
	return nil
}
