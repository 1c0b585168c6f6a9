// test/benchmarks/helpers.go
package benchmarks

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/minimarket-pos/internal/adapters/memory"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

// seedStore registers one product with count lots of quantity units each
func seedStore(count, quantity int) (*memory.Store, domain.Product, []domain.StockLot) {
	ctx := context.Background()
	store := memory.NewStore()

	product := helpers.CreateTestProduct()
	_ = store.SaveProduct(ctx, &product)

	lots := helpers.CreateTestLots(product.ID, count)
	for i := range lots {
		lots[i].InitialQuantity = quantity
		lots[i].CurrentQuantity = quantity
		_ = store.Save(ctx, &lots[i])
	}

	return store, product, lots
}

// wholesaleLine sells three units, enough to reach the wholesale tier
func wholesaleLine(productID, lotID uuid.UUID) ports.SaleLineInput {
	return ports.SaleLineInput{
		ProductID:  productID,
		LotID:      lotID,
		Quantity:   3,
		SaleFormat: domain.FormatUnit,
	}
}
