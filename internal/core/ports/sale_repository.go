// internal/core/ports/sale_repository.go
package ports

import (
	"context"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/google/uuid"
)

// SaleRepository reads the committed sale ledger.
type SaleRepository interface {
	FindByID(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Sale, error)
}

// SaleTx is the set of operations available inside a sale unit of work.
// Every call runs in the same storage transaction.
type SaleTx interface {
	// LockLots locks the given lots for the rest of the transaction and
	// returns their current state. Locks are taken in id order.
	LockLots(ctx context.Context, lotIDs []uuid.UUID) (map[uuid.UUID]domain.StockLot, error)
	DecrementLot(ctx context.Context, lotID uuid.UUID, quantity int) error
	// InsertSale stores the sale header and assigns TicketNumber and CreatedAt.
	InsertSale(ctx context.Context, sale *domain.Sale) error
	InsertLineItems(ctx context.Context, items []domain.SaleLineItem) error
}

// SaleUnitOfWork runs fn atomically. A non-nil error from fn, or a panic,
// rolls back every write made through the SaleTx.
type SaleUnitOfWork interface {
	Execute(ctx context.Context, fn func(tx SaleTx) error) error
}
