// internal/core/domain/cart.go
package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one priced line of a cart, bound to exactly one lot.
type CartLine struct {
	ProductID    uuid.UUID       `json:"product_id"`
	LotID        uuid.UUID       `json:"lot_id"`
	Quantity     int             `json:"quantity"`
	SaleFormat   SaleFormat      `json:"sale_format"`
	AppliedPrice decimal.Decimal `json:"applied_price"`
	PriceTier    PriceTier       `json:"price_tier"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Savings      decimal.Decimal `json:"savings"`
}

// CartTotals summarizes a cart with its discount applied.
type CartTotals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	Savings        decimal.Decimal `json:"savings"`
	ItemCount      int             `json:"item_count"`
}

type cartEntry struct {
	line CartLine
	lot  StockLot
}

// Cart is an ordered set of lines for one checkout session. Lines can only be
// changed through its methods, which re-price on every change.
type Cart struct {
	pricing   PricingCalculator
	allocator LotAllocator
	entries   []cartEntry
	discount  *Discount
}

// NewCart creates an empty cart priced with the given policy
func NewCart(policy PricingPolicy) *Cart {
	return &Cart{
		pricing:   NewPricingCalculator(policy),
		allocator: NewLotAllocator(policy),
	}
}

func (c *Cart) find(productID, lotID uuid.UUID) int {
	for i := range c.entries {
		if c.entries[i].line.ProductID == productID && c.entries[i].line.LotID == lotID {
			return i
		}
	}
	return -1
}

// check validates quantity against lot and converts blocking problems to typed errors.
func (c *Cart) check(lot StockLot, quantity int) (ValidationResult, error) {
	result := c.allocator.Validate(lot, quantity)
	if result.IsValid {
		return result, nil
	}
	if quantity > lot.CurrentQuantity && quantity >= 1 {
		return result, &InsufficientStockError{
			ProductID: lot.ProductID,
			LotID:     lot.ID,
			Requested: quantity,
			Available: lot.CurrentQuantity,
		}
	}
	return result, NewValidationError(result.Errors...)
}

func (c *Cart) price(entry *cartEntry) {
	quote := c.pricing.Calculate(entry.lot, entry.line.Quantity, entry.line.SaleFormat)
	entry.line.AppliedPrice = quote.AppliedPrice
	entry.line.PriceTier = quote.PriceTier
	entry.line.TotalPrice = quote.TotalPrice
	entry.line.Savings = quote.Savings
}

// AddLine adds quantity units of lot to the cart. Adding a product and lot
// already in the cart increments that line, which keeps its sale format.
// The cart is left unchanged when the combined quantity is rejected.
func (c *Cart) AddLine(product Product, lot StockLot, quantity int, format SaleFormat) (ValidationResult, error) {
	if lot.ProductID != product.ID {
		return ValidationResult{}, NewValidationError(
			fmt.Sprintf("lot %s does not belong to product %s", lot.ID, product.ID))
	}
	if !format.IsValid() {
		return ValidationResult{}, NewValidationError(fmt.Sprintf("unknown sale format %q", format))
	}
	if quantity < 1 {
		return ValidationResult{}, NewValidationError("quantity must be at least 1")
	}

	if idx := c.find(product.ID, lot.ID); idx >= 0 {
		entry := c.entries[idx]
		combined := entry.line.Quantity + quantity
		result, err := c.check(lot, combined)
		if err != nil {
			return result, err
		}
		entry.lot = lot
		entry.line.Quantity = combined
		c.price(&entry)
		c.entries[idx] = entry
		return result, nil
	}

	result, err := c.check(lot, quantity)
	if err != nil {
		return result, err
	}
	entry := cartEntry{
		lot: lot,
		line: CartLine{
			ProductID:  product.ID,
			LotID:      lot.ID,
			Quantity:   quantity,
			SaleFormat: format,
		},
	}
	c.price(&entry)
	c.entries = append(c.entries, entry)
	return result, nil
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line.
func (c *Cart) UpdateQuantity(lotID, productID uuid.UUID, quantity int) (ValidationResult, error) {
	idx := c.find(productID, lotID)
	if idx < 0 {
		return ValidationResult{}, ErrCartLineNotFound
	}
	if quantity <= 0 {
		c.removeAt(idx)
		return ValidationResult{IsValid: true}, nil
	}

	entry := c.entries[idx]
	result, err := c.check(entry.lot, quantity)
	if err != nil {
		return result, err
	}
	entry.line.Quantity = quantity
	c.price(&entry)
	c.entries[idx] = entry
	return result, nil
}

// RemoveLine drops a line. It reports whether the line existed.
func (c *Cart) RemoveLine(lotID, productID uuid.UUID) bool {
	idx := c.find(productID, lotID)
	if idx < 0 {
		return false
	}
	c.removeAt(idx)
	return true
}

func (c *Cart) removeAt(idx int) {
	c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
}

// SetDiscount replaces the global discount. nil clears it.
func (c *Cart) SetDiscount(d *Discount) error {
	if d != nil {
		if err := d.Validate(); err != nil {
			return err
		}
		copied := *d
		d = &copied
	}
	c.discount = d
	return nil
}

// Discount returns a copy of the current discount, if any.
func (c *Cart) Discount() *Discount {
	if c.discount == nil {
		return nil
	}
	d := *c.discount
	return &d
}

// Subtotal is the sum of line totals before the discount.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.entries {
		total = total.Add(e.line.TotalPrice)
	}
	return total
}

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, e := range c.entries {
		count += e.line.Quantity
	}
	return count
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []CartLine {
	lines := make([]CartLine, len(c.entries))
	for i, e := range c.entries {
		lines[i] = e.line
	}
	return lines
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.entries) == 0
}

// Totals applies the discount to the current subtotal.
func (c *Cart) Totals() CartTotals {
	subtotal := c.Subtotal()
	applied := ApplyDiscount(subtotal, c.discount)

	savings := decimal.Zero
	for _, e := range c.entries {
		savings = savings.Add(e.line.Savings)
	}

	return CartTotals{
		Subtotal:       subtotal,
		DiscountAmount: applied.DiscountAmount,
		Total:          applied.FinalTotal,
		Savings:        savings,
		ItemCount:      c.ItemCount(),
	}
}
