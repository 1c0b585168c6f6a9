// internal/core/domain/sale.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a committed ticket. Sales and their line items are append-only.
type Sale struct {
	ID             uuid.UUID           `json:"id"`
	SellerID       string              `json:"seller_id"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	DiscountType   *DiscountType       `json:"discount_type,omitempty"`
	DiscountValue  decimal.NullDecimal `json:"discount_value"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	TicketNumber   int64               `json:"ticket_number"`
	IdempotencyKey *string             `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	Items          []SaleLineItem      `json:"items"`
}

// SaleLineItem records one sold line with the price frozen at sale time.
type SaleLineItem struct {
	ID           int64           `json:"id"`
	SaleID       uuid.UUID       `json:"sale_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	LotID        uuid.UUID       `json:"lot_id"`
	QuantitySold int             `json:"quantity_sold"`
	PriceAtSale  decimal.Decimal `json:"price_at_sale"`
	SaleFormat   SaleFormat      `json:"sale_format"`
	IsWholesale  bool            `json:"is_wholesale"`
	Savings      decimal.Decimal `json:"savings"`
}

// PriceTier derives the applied tier from the stored line.
func (i SaleLineItem) PriceTier() PriceTier {
	switch {
	case i.SaleFormat == FormatBox:
		return TierBox
	case i.IsWholesale:
		return TierWholesale
	default:
		return TierUnit
	}
}

// TotalPrice is price_at_sale * quantity_sold.
func (i SaleLineItem) TotalPrice() decimal.Decimal {
	return i.PriceAtSale.Mul(decimal.NewFromInt(int64(i.QuantitySold)))
}

// ApplyDiscountSnapshot records the discount used at checkout.
func (s *Sale) ApplyDiscountSnapshot(d *Discount, result DiscountResult) {
	s.DiscountAmount = result.DiscountAmount
	s.TotalAmount = result.FinalTotal
	if d == nil {
		s.DiscountType = nil
		s.DiscountValue = decimal.NullDecimal{}
		return
	}
	t := d.Type
	s.DiscountType = &t
	s.DiscountValue = decimal.NewNullDecimal(d.Value)
}

// UnitsSold is the total quantity across line items.
func (s *Sale) UnitsSold() int {
	units := 0
	for _, item := range s.Items {
		units += item.QuantitySold
	}
	return units
}

// SaleResultLine is the caller facing view of a sold line.
type SaleResultLine struct {
	ProductID    uuid.UUID       `json:"productId"`
	LotID        uuid.UUID       `json:"lotId"`
	QuantitySold int             `json:"quantitySold"`
	PriceAtSale  decimal.Decimal `json:"priceAtSale"`
	PriceTier    PriceTier       `json:"priceTier"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Savings      decimal.Decimal `json:"savings"`
}

// SaleResult is returned once a sale has been committed.
type SaleResult struct {
	SaleID         uuid.UUID        `json:"saleId"`
	TicketNumber   int64            `json:"ticketNumber"`
	Subtotal       decimal.Decimal  `json:"subtotal"`
	DiscountAmount decimal.Decimal  `json:"discountAmount"`
	TotalAmount    decimal.Decimal  `json:"totalAmount"`
	CreatedAt      time.Time        `json:"createdAt"`
	Lines          []SaleResultLine `json:"lines"`
	Replayed       bool             `json:"replayed,omitempty"`
}

// Result builds the committed view of the sale.
func (s *Sale) Result() *SaleResult {
	lines := make([]SaleResultLine, 0, len(s.Items))
	for _, item := range s.Items {
		lines = append(lines, SaleResultLine{
			ProductID:    item.ProductID,
			LotID:        item.LotID,
			QuantitySold: item.QuantitySold,
			PriceAtSale:  item.PriceAtSale,
			PriceTier:    item.PriceTier(),
			TotalPrice:   item.TotalPrice(),
			Savings:      item.Savings,
		})
	}

	return &SaleResult{
		SaleID:         s.ID,
		TicketNumber:   s.TicketNumber,
		Subtotal:       s.Subtotal,
		DiscountAmount: s.DiscountAmount,
		TotalAmount:    s.TotalAmount,
		CreatedAt:      s.CreatedAt,
		Lines:          lines,
	}
}
