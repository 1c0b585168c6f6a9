package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

func TestCartService_Quote(t *testing.T) {
	lot := helpers.CreateTestLot()
	store, product := seededStore(t, lot)
	lot = mustLot(t, store, lot.ID)

	service := services.NewCartService(store, store, domain.DefaultPricingPolicy(), helpers.TestLogger())

	t.Run("prices_lines_and_discount", func(t *testing.T) {
		quote, err := service.Quote(context.Background(), ports.QuoteCartInput{
			Lines: []ports.SaleLineInput{
				line(product, lot, 3),
			},
			Discount: &domain.Discount{Type: domain.DiscountPercentage, Value: decimal.NewFromInt(10)},
		})
		require.NoError(t, err)

		require.Len(t, quote.Lines, 1)
		assert.Equal(t, domain.TierWholesale, quote.Lines[0].PriceTier)
		assert.True(t, decimal.NewFromInt(2400).Equal(quote.Totals.Subtotal))
		assert.True(t, decimal.NewFromInt(240).Equal(quote.Totals.DiscountAmount))
		assert.True(t, decimal.NewFromInt(2160).Equal(quote.Totals.Total))
		assert.True(t, decimal.NewFromInt(600).Equal(quote.Totals.Savings))
		assert.Equal(t, 3, quote.Totals.ItemCount)
		assert.Empty(t, quote.Warnings)
	})

	t.Run("same_lot_lines_merge", func(t *testing.T) {
		quote, err := service.Quote(context.Background(), ports.QuoteCartInput{
			Lines: []ports.SaleLineInput{line(product, lot, 1), line(product, lot, 2)},
		})
		require.NoError(t, err)

		require.Len(t, quote.Lines, 1)
		assert.Equal(t, 3, quote.Lines[0].Quantity)
		assert.Equal(t, domain.TierWholesale, quote.Lines[0].PriceTier)
	})

	t.Run("near_threshold_warns", func(t *testing.T) {
		quote, err := service.Quote(context.Background(), ports.QuoteCartInput{
			Lines: []ports.SaleLineInput{line(product, lot, 2)},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, quote.Warnings[lot.ID.String()])
	})

	t.Run("nothing_is_reserved", func(t *testing.T) {
		_, err := service.Quote(context.Background(), ports.QuoteCartInput{
			Lines: []ports.SaleLineInput{line(product, lot, 5)},
		})
		require.NoError(t, err)
		assert.Equal(t, lot.CurrentQuantity, store.Snapshot()[lot.ID])
	})

	t.Run("over_stock_is_rejected", func(t *testing.T) {
		_, err := service.Quote(context.Background(), ports.QuoteCartInput{
			Lines: []ports.SaleLineInput{line(product, lot, lot.CurrentQuantity+1)},
		})
		require.Error(t, err)
		assert.NotEqual(t, domain.CodePersistence, domain.CodeOf(err))
	})

	t.Run("unknown_lot", func(t *testing.T) {
		_, err := service.Quote(context.Background(), ports.QuoteCartInput{
			Lines: []ports.SaleLineInput{{ProductID: product.ID, LotID: uuid.New(), Quantity: 1, SaleFormat: domain.FormatUnit}},
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("empty_cart", func(t *testing.T) {
		_, err := service.Quote(context.Background(), ports.QuoteCartInput{})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}
