// internal/core/domain/discount.go
package domain

import (
	"github.com/shopspring/decimal"
)

// DiscountType selects how a global discount value is interpreted.
type DiscountType string

const (
	DiscountAmount     DiscountType = "amount"
	DiscountPercentage DiscountType = "percentage"
)

var hundred = decimal.NewFromInt(100)

// Discount is a checkout-time input. It is never stored on its own; the
// sale keeps a snapshot of it.
type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Validate performs domain validation on the discount
func (d Discount) Validate() error {
	var problems []string

	switch d.Type {
	case DiscountAmount, DiscountPercentage:
	default:
		problems = append(problems, "discount type must be amount or percentage")
	}
	if d.Value.IsNegative() {
		problems = append(problems, "discount value cannot be negative")
	}
	if d.Type == DiscountPercentage && d.Value.GreaterThan(hundred) {
		problems = append(problems, "percentage discount cannot exceed 100")
	}

	if len(problems) > 0 {
		return NewValidationError(problems...)
	}
	return nil
}

// DiscountResult holds the discount applied to a subtotal.
type DiscountResult struct {
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
}

// ApplyDiscount computes the discount amount and the final total. A nil
// discount applies nothing; amounts are capped at the subtotal and
// percentages are clamped to [0, 100].
func ApplyDiscount(subtotal decimal.Decimal, d *Discount) DiscountResult {
	amount := decimal.Zero

	if d != nil {
		value := decimal.Max(d.Value, decimal.Zero)
		switch d.Type {
		case DiscountAmount:
			amount = decimal.Min(value, decimal.Max(subtotal, decimal.Zero))
		case DiscountPercentage:
			value = decimal.Min(value, hundred)
			amount = subtotal.Mul(value).Div(hundred).Round(2)
		}
	}

	return DiscountResult{
		DiscountAmount: amount,
		FinalTotal:     decimal.Max(subtotal.Sub(amount), decimal.Zero),
	}
}
