// internal/core/ports/stock_lot_repository.go
package ports

import (
	"context"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/google/uuid"
)

// StockLotRepository defines the persistence port for stock lots.
// Reads here never lock; row locks are only taken through SaleTx.
type StockLotRepository interface {
	FindByID(ctx context.Context, lotID uuid.UUID) (*domain.StockLot, error)
	FindByIDs(ctx context.Context, lotIDs []uuid.UUID) (map[uuid.UUID]domain.StockLot, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]domain.StockLot, error)
	Save(ctx context.Context, lot *domain.StockLot) error
	Delete(ctx context.Context, lotID uuid.UUID) error
	HasSales(ctx context.Context, lotID uuid.UUID) (bool, error)
}

// ProductCatalog reads and registers products.
type ProductCatalog interface {
	FindProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error)
	FindProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.Product, error)
	SaveProduct(ctx context.Context, product *domain.Product) error
}
