// internal/core/domain/allocator.go
package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity bounds the units a single sale may take from one lot.
const MaxLineQuantity = 1_000_000

// ValidationResult is the outcome of checking a quantity against a lot.
// Warnings never block a sale.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// LotAllocator picks the default lot of a product and validates requested
// quantities. It never splits a quantity across lots.
type LotAllocator struct {
	policy PricingPolicy
}

// NewLotAllocator creates an allocator for the given policy
func NewLotAllocator(policy PricingPolicy) LotAllocator {
	return LotAllocator{policy: policy.normalized()}
}

// Rank returns a copy of lots in First-Expired-First-Out order: lots with an
// expiration date first by date, lots without one last, ties by creation time.
func (a LotAllocator) Rank(lots []StockLot) []StockLot {
	ranked := make([]StockLot, len(lots))
	copy(ranked, lots)

	sort.SliceStable(ranked, func(i, j int) bool {
		li, lj := ranked[i], ranked[j]
		switch {
		case li.HasExpiration() && !lj.HasExpiration():
			return true
		case !li.HasExpiration() && lj.HasExpiration():
			return false
		case li.HasExpiration() && lj.HasExpiration() && !li.ExpirationDate.Equal(*lj.ExpirationDate):
			return li.ExpirationDate.Before(*lj.ExpirationDate)
		}
		return li.CreatedAt.Before(lj.CreatedAt)
	})

	return ranked
}

// Recommend returns the first lot in ranked order that still has stock.
func (a LotAllocator) Recommend(lots []StockLot) (StockLot, bool) {
	for _, lot := range a.Rank(lots) {
		if !lot.IsDepleted() {
			return lot, true
		}
	}
	return StockLot{}, false
}

// Validate checks quantity against the lot's current stock.
func (a LotAllocator) Validate(lot StockLot, quantity int) ValidationResult {
	result := ValidationResult{IsValid: true}

	if quantity < 1 {
		result.Errors = append(result.Errors, "quantity must be at least 1")
	}
	if quantity > lot.CurrentQuantity {
		result.Errors = append(result.Errors,
			fmt.Sprintf("quantity %d exceeds available stock of %d", quantity, lot.CurrentQuantity))
	}

	threshold := a.policy.WholesaleThreshold
	if lot.HasWholesale() && quantity >= 1 && quantity < threshold && threshold-quantity <= 2 {
		missing := threshold - quantity
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("add %d more unit(s) to reach the wholesale price of %s",
				missing, lot.SalePriceWholesale.Decimal.String()))
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// QuantityFromDecimal converts a transport quantity to a unit count,
// rejecting fractional and out of range values.
func QuantityFromDecimal(raw decimal.Decimal) (int, error) {
	if !raw.Equal(raw.Truncate(0)) {
		return 0, NewValidationError(fmt.Sprintf("quantity %s must be an integer", raw.String()))
	}
	if raw.Abs().GreaterThan(decimal.NewFromInt(MaxLineQuantity)) {
		return 0, NewValidationError(fmt.Sprintf("quantity %s is out of range", raw.String()))
	}
	return int(raw.IntPart()), nil
}
