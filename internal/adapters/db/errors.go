// internal/adapters/db/errors.go
package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
)

// PostgreSQL error codes the adapters react to
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"

	idempotencyKeyIndex  = "uq_sales_idempotency_key"
	lotPrimaryKey        = "stock_lots_pkey"
	stockBoundsCheck     = "stock_lots_quantity_bounds"
	lotSalesForeignKey   = "sale_line_items_lot_id_fkey"
	lotProductForeignKey = "stock_lots_product_id_fkey"
)

// translateError maps driver errors onto the domain taxonomy. Errors that are
// already typed pass through unchanged.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &domain.ConcurrencyConflictError{Op: op, Err: err}
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return &domain.PersistenceError{Op: op, Err: err}
	}

	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgQueryCanceled:
		return &domain.ConcurrencyConflictError{Op: op, Err: err}
	case pgUniqueViolation:
		switch pgErr.ConstraintName {
		case idempotencyKeyIndex:
			return domain.ErrDuplicateSaleKey
		case lotPrimaryKey:
			return domain.ErrLotExists
		}
	case pgForeignKeyViolation:
		switch pgErr.ConstraintName {
		case lotSalesForeignKey:
			return domain.ErrLotHasSales
		case lotProductForeignKey:
			return domain.ErrProductNotFound
		}
	case pgCheckViolation:
		if pgErr.ConstraintName == stockBoundsCheck {
			return domain.ErrNegativeStockLevel
		}
	}

	return &domain.PersistenceError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	var coded domain.CodedError
	if errors.As(err, &coded) {
		return true
	}
	for _, sentinel := range []error{
		domain.ErrLotNotFound,
		domain.ErrProductNotFound,
		domain.ErrSaleNotFound,
		domain.ErrLotHasSales,
		domain.ErrLotExists,
		domain.ErrDuplicateSaleKey,
		domain.ErrNegativeStockLevel,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
