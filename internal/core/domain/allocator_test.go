package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return &d
}

func TestLotAllocator_RankFEFO(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	may := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.Barcode = "MAY"
		l.ExpirationDate = date(t, "2024-05-01")
		l.CreatedAt = base
	})
	april := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.Barcode = "APRIL"
		l.ExpirationDate = date(t, "2024-04-01")
		l.CreatedAt = base.Add(time.Hour)
	})
	never := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.Barcode = "NEVER"
		l.ExpirationDate = nil
		l.CreatedAt = base.Add(-time.Hour)
	})

	allocator := domain.NewLotAllocator(domain.DefaultPricingPolicy())
	input := []domain.StockLot{may, april, never}

	ranked := allocator.Rank(input)

	require.Len(t, ranked, 3)
	assert.Equal(t, "APRIL", ranked[0].Barcode)
	assert.Equal(t, "MAY", ranked[1].Barcode)
	assert.Equal(t, "NEVER", ranked[2].Barcode)

	// input order is untouched
	assert.Equal(t, "MAY", input[0].Barcode)

	recommended, ok := allocator.Recommend(input)
	require.True(t, ok)
	assert.Equal(t, april.ID, recommended.ID)
}

func TestLotAllocator_RankTieBreaksByCreation(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := date(t, "2024-06-01")

	older := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.Barcode = "OLDER"
		l.ExpirationDate = expiry
		l.CreatedAt = base
	})
	newer := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.Barcode = "NEWER"
		l.ExpirationDate = expiry
		l.CreatedAt = base.Add(24 * time.Hour)
	})
	noExpiryOld := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.Barcode = "NOEXP_OLD"
		l.ExpirationDate = nil
		l.CreatedAt = base
	})
	noExpiryNew := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.Barcode = "NOEXP_NEW"
		l.ExpirationDate = nil
		l.CreatedAt = base.Add(time.Hour)
	})

	allocator := domain.NewLotAllocator(domain.DefaultPricingPolicy())
	ranked := allocator.Rank([]domain.StockLot{noExpiryNew, newer, noExpiryOld, older})

	got := make([]string, 0, len(ranked))
	for _, l := range ranked {
		got = append(got, l.Barcode)
	}
	assert.Equal(t, []string{"OLDER", "NEWER", "NOEXP_OLD", "NOEXP_NEW"}, got)
}

func TestLotAllocator_RecommendSkipsDepleted(t *testing.T) {
	depleted := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.ExpirationDate = date(t, "2024-01-01")
		l.CurrentQuantity = 0
	})
	available := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.ExpirationDate = date(t, "2024-02-01")
	})

	allocator := domain.NewLotAllocator(domain.DefaultPricingPolicy())

	got, ok := allocator.Recommend([]domain.StockLot{depleted, available})
	require.True(t, ok)
	assert.Equal(t, available.ID, got.ID)

	_, ok = allocator.Recommend([]domain.StockLot{depleted})
	assert.False(t, ok)

	_, ok = allocator.Recommend(nil)
	assert.False(t, ok)
}

func TestLotAllocator_Validate(t *testing.T) {
	withWholesale := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.CurrentQuantity = 10
		l.SalePriceWholesale = decimal.NewNullDecimal(decimal.NewFromInt(800))
	})
	noWholesale := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.CurrentQuantity = 10
		l.SalePriceWholesale = decimal.NullDecimal{}
	})

	tests := []struct {
		name         string
		lot          domain.StockLot
		quantity     int
		wantValid    bool
		wantErrors   int
		wantWarnings int
	}{
		{name: "zero_quantity", lot: withWholesale, quantity: 0, wantValid: false, wantErrors: 1},
		{name: "negative_quantity", lot: withWholesale, quantity: -2, wantValid: false, wantErrors: 1},
		{name: "exceeds_stock", lot: withWholesale, quantity: 11, wantValid: false, wantErrors: 1},
		{name: "exact_stock", lot: withWholesale, quantity: 10, wantValid: true},
		{name: "one_below_threshold_warns", lot: withWholesale, quantity: 2, wantValid: true, wantWarnings: 1},
		{name: "two_below_threshold_warns", lot: withWholesale, quantity: 1, wantValid: true, wantWarnings: 1},
		{name: "at_threshold_no_warning", lot: withWholesale, quantity: 3, wantValid: true},
		{name: "no_wholesale_no_warning", lot: noWholesale, quantity: 2, wantValid: true},
	}

	allocator := domain.NewLotAllocator(domain.DefaultPricingPolicy())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := allocator.Validate(tt.lot, tt.quantity)

			assert.Equal(t, tt.wantValid, result.IsValid)
			assert.Len(t, result.Errors, tt.wantErrors)
			assert.Len(t, result.Warnings, tt.wantWarnings)
		})
	}
}

func TestLotAllocator_WarningOnlyWithinTwoOfThreshold(t *testing.T) {
	lot := helpers.CreateTestLot(func(l *domain.StockLot) {
		l.CurrentQuantity = 20
		l.SalePriceWholesale = decimal.NewNullDecimal(decimal.NewFromInt(800))
	})
	allocator := domain.NewLotAllocator(domain.PricingPolicy{
		WholesaleThreshold:   6,
		WholesaleMarginFloor: domain.DefaultWholesaleMarginFloor,
	})

	assert.Empty(t, allocator.Validate(lot, 3).Warnings)
	assert.Len(t, allocator.Validate(lot, 4).Warnings, 1)
	assert.Len(t, allocator.Validate(lot, 5).Warnings, 1)
	assert.Empty(t, allocator.Validate(lot, 6).Warnings)
}

func TestQuantityFromDecimal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "integer", raw: "3", want: 3},
		{name: "integer_with_zero_fraction", raw: "3.0", want: 3},
		{name: "fractional", raw: "2.5", wantErr: true},
		{name: "negative_integer_passes_through", raw: "-1", want: -1},
		{name: "out_of_range", raw: "10000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.QuantityFromDecimal(decimal.RequireFromString(tt.raw))
			if tt.wantErr {
				var verr *domain.ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
