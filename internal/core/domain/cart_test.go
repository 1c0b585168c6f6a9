package domain_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

func cartFixture() (domain.Product, domain.StockLot) {
	product := helpers.CreateTestProduct()
	lot := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.ProductID = product.ID
		l.CurrentQuantity = 10
		l.SalePriceUnit = decimal.NewFromInt(1000)
		l.SalePriceWholesale = decimal.NewNullDecimal(decimal.NewFromInt(800))
		l.SalePriceBox = decimal.NewFromInt(9000)
	})
	return product, lot
}

func TestCart_AddLineMergesSameLot(t *testing.T) {
	product, lot := cartFixture()
	cart := domain.NewCart(domain.DefaultPricingPolicy())

	result, err := cart.AddLine(product, lot, 2, domain.FormatUnit)
	require.NoError(t, err)
	assert.Len(t, result.Warnings, 1, "two units sits one below the wholesale threshold")

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, domain.TierUnit, lines[0].PriceTier)
	assert.True(t, decimal.NewFromInt(2000).Equal(cart.Subtotal()))

	_, err = cart.AddLine(product, lot, 1, domain.FormatUnit)
	require.NoError(t, err)

	lines = cart.Lines()
	require.Len(t, lines, 1, "same product and lot must merge")
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, domain.TierWholesale, lines[0].PriceTier)
	assert.True(t, decimal.NewFromInt(2400).Equal(lines[0].TotalPrice))
	assert.True(t, decimal.NewFromInt(600).Equal(lines[0].Savings))
	assert.Equal(t, 3, cart.ItemCount())
}

func TestCart_AddLineRejectsOverStock(t *testing.T) {
	product, lot := cartFixture()
	cart := domain.NewCart(domain.DefaultPricingPolicy())

	_, err := cart.AddLine(product, lot, 8, domain.FormatUnit)
	require.NoError(t, err)

	_, err = cart.AddLine(product, lot, 3, domain.FormatUnit)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 11, stockErr.Requested)
	assert.Equal(t, 10, stockErr.Available)
	assert.Equal(t, 1, stockErr.Shortfall())

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 8, lines[0].Quantity, "rejected add leaves the cart unchanged")
}

func TestCart_AddLineValidation(t *testing.T) {
	product, lot := cartFixture()
	other := helpers.CreateTestProduct()

	tests := []struct {
		name     string
		product  domain.Product
		quantity int
		format   domain.SaleFormat
	}{
		{name: "lot_of_other_product", product: other, quantity: 1, format: domain.FormatUnit},
		{name: "unknown_format", product: product, quantity: 1, format: "pallet"},
		{name: "zero_quantity", product: product, quantity: 0, format: domain.FormatUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := domain.NewCart(domain.DefaultPricingPolicy())

			_, err := cart.AddLine(tt.product, lot, tt.quantity, tt.format)

			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.True(t, cart.IsEmpty())
		})
	}
}

func TestCart_SeparateLotsStaySeparate(t *testing.T) {
	product, lotA := cartFixture()
	lotB := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.ProductID = product.ID
	})
	cart := domain.NewCart(domain.DefaultPricingPolicy())

	_, err := cart.AddLine(product, lotA, 1, domain.FormatUnit)
	require.NoError(t, err)
	_, err = cart.AddLine(product, lotB, 1, domain.FormatUnit)
	require.NoError(t, err)

	assert.Len(t, cart.Lines(), 2)
}

func TestCart_UpdateQuantity(t *testing.T) {
	product, lot := cartFixture()

	t.Run("crossing_threshold_reprices", func(t *testing.T) {
		cart := domain.NewCart(domain.DefaultPricingPolicy())
		_, err := cart.AddLine(product, lot, 1, domain.FormatUnit)
		require.NoError(t, err)

		_, err = cart.UpdateQuantity(lot.ID, product.ID, 5)
		require.NoError(t, err)

		line := cart.Lines()[0]
		assert.Equal(t, domain.TierWholesale, line.PriceTier)
		assert.True(t, decimal.NewFromInt(4000).Equal(line.TotalPrice))

		_, err = cart.UpdateQuantity(lot.ID, product.ID, 2)
		require.NoError(t, err)

		line = cart.Lines()[0]
		assert.Equal(t, domain.TierUnit, line.PriceTier)
		assert.True(t, decimal.NewFromInt(2000).Equal(line.TotalPrice))
	})

	t.Run("zero_removes_line", func(t *testing.T) {
		cart := domain.NewCart(domain.DefaultPricingPolicy())
		_, err := cart.AddLine(product, lot, 1, domain.FormatUnit)
		require.NoError(t, err)

		_, err = cart.UpdateQuantity(lot.ID, product.ID, 0)
		require.NoError(t, err)
		assert.True(t, cart.IsEmpty())
	})

	t.Run("negative_removes_line", func(t *testing.T) {
		cart := domain.NewCart(domain.DefaultPricingPolicy())
		_, err := cart.AddLine(product, lot, 1, domain.FormatUnit)
		require.NoError(t, err)

		_, err = cart.UpdateQuantity(lot.ID, product.ID, -3)
		require.NoError(t, err)
		assert.True(t, cart.IsEmpty())
	})

	t.Run("over_stock_rejected", func(t *testing.T) {
		cart := domain.NewCart(domain.DefaultPricingPolicy())
		_, err := cart.AddLine(product, lot, 1, domain.FormatUnit)
		require.NoError(t, err)

		_, err = cart.UpdateQuantity(lot.ID, product.ID, 11)

		var stockErr *domain.InsufficientStockError
		assert.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 1, cart.Lines()[0].Quantity)
	})

	t.Run("unknown_line", func(t *testing.T) {
		cart := domain.NewCart(domain.DefaultPricingPolicy())

		_, err := cart.UpdateQuantity(uuid.New(), product.ID, 1)
		assert.True(t, errors.Is(err, domain.ErrCartLineNotFound))
	})
}

func TestCart_RemoveLine(t *testing.T) {
	product, lot := cartFixture()
	cart := domain.NewCart(domain.DefaultPricingPolicy())
	_, err := cart.AddLine(product, lot, 2, domain.FormatBox)
	require.NoError(t, err)

	assert.False(t, cart.RemoveLine(uuid.New(), product.ID))
	assert.True(t, cart.RemoveLine(lot.ID, product.ID))
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Subtotal().IsZero())
	assert.Equal(t, 0, cart.ItemCount())
}

func TestCart_LinesAreCopies(t *testing.T) {
	product, lot := cartFixture()
	cart := domain.NewCart(domain.DefaultPricingPolicy())
	_, err := cart.AddLine(product, lot, 1, domain.FormatUnit)
	require.NoError(t, err)

	lines := cart.Lines()
	lines[0].Quantity = 99
	lines[0].TotalPrice = decimal.Zero

	fresh := cart.Lines()
	assert.Equal(t, 1, fresh[0].Quantity)
	assert.True(t, decimal.NewFromInt(1000).Equal(fresh[0].TotalPrice))
}

func TestCart_Totals(t *testing.T) {
	product, lot := cartFixture()
	cart := domain.NewCart(domain.DefaultPricingPolicy())
	_, err := cart.AddLine(product, lot, 3, domain.FormatUnit)
	require.NoError(t, err)

	require.NoError(t, cart.SetDiscount(&domain.Discount{
		Type:  domain.DiscountPercentage,
		Value: decimal.NewFromInt(10),
	}))

	totals := cart.Totals()
	assert.True(t, decimal.NewFromInt(2400).Equal(totals.Subtotal))
	assert.True(t, decimal.NewFromInt(240).Equal(totals.DiscountAmount))
	assert.True(t, decimal.NewFromInt(2160).Equal(totals.Total))
	assert.True(t, decimal.NewFromInt(600).Equal(totals.Savings))
	assert.Equal(t, 3, totals.ItemCount)

	err = cart.SetDiscount(&domain.Discount{Type: domain.DiscountPercentage, Value: decimal.NewFromInt(120)})
	assert.Error(t, err)
	assert.NotNil(t, cart.Discount(), "invalid discount keeps the previous one")

	require.NoError(t, cart.SetDiscount(nil))
	assert.Nil(t, cart.Discount())
}
