// internal/core/domain/pricing.go
package domain

import (
	"github.com/shopspring/decimal"
)

// SaleFormat is the packaging a line is sold in.
type SaleFormat string

const (
	FormatUnit SaleFormat = "unitario"
	FormatBox  SaleFormat = "caja"
)

// IsValid reports whether f is a known sale format.
func (f SaleFormat) IsValid() bool {
	return f == FormatUnit || f == FormatBox
}

// PriceTier identifies which lot price was applied to a line.
type PriceTier string

const (
	TierUnit      PriceTier = "unit"
	TierWholesale PriceTier = "wholesale"
	TierBox       PriceTier = "box"
)

// DefaultWholesaleThreshold is the minimum unit quantity that unlocks the wholesale price.
const DefaultWholesaleThreshold = 3

// DefaultWholesaleMarginFloor is the minimum markup of the wholesale price over the purchase price.
var DefaultWholesaleMarginFloor = decimal.RequireFromString("0.05")

// PricingPolicy holds the deployment tunables of the price tiers.
type PricingPolicy struct {
	WholesaleThreshold   int
	WholesaleMarginFloor decimal.Decimal
}

// DefaultPricingPolicy returns the standard minimarket policy.
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		WholesaleThreshold:   DefaultWholesaleThreshold,
		WholesaleMarginFloor: DefaultWholesaleMarginFloor,
	}
}

func (p PricingPolicy) normalized() PricingPolicy {
	if p.WholesaleThreshold < 1 {
		p.WholesaleThreshold = DefaultWholesaleThreshold
	}
	if p.WholesaleMarginFloor.IsNegative() {
		p.WholesaleMarginFloor = decimal.Zero
	}
	return p
}

// MinimumWholesalePrice is purchase * (1 + margin floor).
func (p PricingPolicy) MinimumWholesalePrice(purchase decimal.Decimal) decimal.Decimal {
	return purchase.Mul(decimal.NewFromInt(1).Add(p.normalized().WholesaleMarginFloor))
}

// PriceQuote is the outcome of pricing one line.
type PriceQuote struct {
	AppliedPrice decimal.Decimal `json:"applied_price"`
	PriceTier    PriceTier       `json:"price_tier"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Savings      decimal.Decimal `json:"savings"`
}

// PricingCalculator selects the price tier of a line. It performs no I/O and
// identical inputs always yield identical quotes.
type PricingCalculator struct {
	policy PricingPolicy
}

// NewPricingCalculator creates a calculator for the given policy
func NewPricingCalculator(policy PricingPolicy) PricingCalculator {
	return PricingCalculator{policy: policy.normalized()}
}

// Policy returns the effective policy.
func (c PricingCalculator) Policy() PricingPolicy {
	return c.policy.normalized()
}

// Calculate prices quantity units of lot sold in the given format.
func (c PricingCalculator) Calculate(lot StockLot, quantity int, format SaleFormat) PriceQuote {
	qty := decimal.NewFromInt(int64(quantity))

	if format == FormatBox {
		return PriceQuote{
			AppliedPrice: lot.SalePriceBox,
			PriceTier:    TierBox,
			TotalPrice:   lot.SalePriceBox.Mul(qty),
			Savings:      decimal.Zero,
		}
	}

	if lot.HasWholesale() && quantity >= c.Policy().WholesaleThreshold {
		wholesale := lot.SalePriceWholesale.Decimal
		return PriceQuote{
			AppliedPrice: wholesale,
			PriceTier:    TierWholesale,
			TotalPrice:   wholesale.Mul(qty),
			Savings:      lot.SalePriceUnit.Sub(wholesale).Mul(qty),
		}
	}

	return PriceQuote{
		AppliedPrice: lot.SalePriceUnit,
		PriceTier:    TierUnit,
		TotalPrice:   lot.SalePriceUnit.Mul(qty),
		Savings:      decimal.Zero,
	}
}
