// internal/core/domain/stock_lot.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotState is the explicit lifecycle state of a stock lot.
type LotState string

const (
	LotAvailable LotState = "available"
	LotDepleted  LotState = "depleted"
	LotExpired   LotState = "expired"
)

// StockLot is an independently tracked batch of a product. It is a value
// type: operations that change stock return a new StockLot.
type StockLot struct {
	ID                 uuid.UUID           `json:"id"`
	ProductID          uuid.UUID           `json:"product_id"`
	Barcode            string              `json:"barcode,omitempty"`
	InitialQuantity    int                 `json:"initial_quantity"`
	CurrentQuantity    int                 `json:"current_quantity"`
	PurchasePrice      decimal.Decimal     `json:"purchase_price"`
	SalePriceUnit      decimal.Decimal     `json:"sale_price_unit"`
	SalePriceBox       decimal.Decimal     `json:"sale_price_box"`
	SalePriceWholesale decimal.NullDecimal `json:"sale_price_wholesale"`
	ExpirationDate     *time.Time          `json:"expiration_date,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

// HasExpiration reports whether the lot carries an expiration date.
func (l StockLot) HasExpiration() bool {
	return l.ExpirationDate != nil
}

// HasWholesale reports whether a wholesale price tier is configured.
func (l StockLot) HasWholesale() bool {
	return l.SalePriceWholesale.Valid
}

// IsDepleted reports whether no units remain. Depleted lots are kept for audit.
func (l StockLot) IsDepleted() bool {
	return l.CurrentQuantity <= 0
}

// IsExpired reports whether the lot expired strictly before now's calendar day.
func (l StockLot) IsExpired(now time.Time) bool {
	if !l.HasExpiration() {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return l.ExpirationDate.Before(today)
}

// State classifies the lot at the given instant.
func (l StockLot) State(now time.Time) LotState {
	switch {
	case l.IsDepleted():
		return LotDepleted
	case l.IsExpired(now):
		return LotExpired
	default:
		return LotAvailable
	}
}

// WithDecrement returns a copy of the lot with qty units removed. qty must
// be positive.
func (l StockLot) WithDecrement(qty int) (StockLot, error) {
	if qty < 1 {
		return l, NewValidationError(fmt.Sprintf("decrement of lot %s must be at least 1, got %d", l.ID, qty))
	}
	if qty > l.CurrentQuantity {
		return l, &InsufficientStockError{
			ProductID: l.ProductID,
			LotID:     l.ID,
			Requested: qty,
			Available: l.CurrentQuantity,
		}
	}
	l.CurrentQuantity -= qty
	return l, nil
}

// Validate checks the quantity and price invariants of the lot against the
// margin floor of the given policy.
func (l StockLot) Validate(policy PricingPolicy) error {
	var problems []string

	if l.ProductID == uuid.Nil {
		problems = append(problems, "product_id is required")
	}
	if l.InitialQuantity < 0 {
		problems = append(problems, "initial_quantity cannot be negative")
	}
	if l.CurrentQuantity < 0 {
		problems = append(problems, "current_quantity cannot be negative")
	}
	if l.CurrentQuantity > l.InitialQuantity {
		problems = append(problems, "current_quantity cannot exceed initial_quantity")
	}
	if l.PurchasePrice.IsNegative() {
		problems = append(problems, "purchase_price cannot be negative")
	}
	if !l.SalePriceUnit.IsPositive() {
		problems = append(problems, "sale_price_unit must be positive")
	}
	if l.SalePriceBox.IsNegative() {
		problems = append(problems, "sale_price_box cannot be negative")
	}

	if l.HasWholesale() {
		wholesale := l.SalePriceWholesale.Decimal
		floor := policy.MinimumWholesalePrice(l.PurchasePrice)
		if wholesale.LessThan(floor) {
			problems = append(problems, "sale_price_wholesale is below the margin floor of "+floor.String())
		}
		if !wholesale.LessThan(l.SalePriceUnit) {
			problems = append(problems, "sale_price_wholesale must be lower than sale_price_unit")
		}
	}

	if len(problems) > 0 {
		return NewValidationError(problems...)
	}
	return nil
}

// PrepareForStorage assigns an id and timestamp when missing. A new lot with
// no current quantity starts full.
func (l *StockLot) PrepareForStorage() {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if l.CurrentQuantity == 0 && l.InitialQuantity > 0 {
		l.CurrentQuantity = l.InitialQuantity
	}
}
