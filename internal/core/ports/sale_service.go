// internal/core/ports/sale_service.go
package ports

import (
	"context"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleService defines the application service port for settling sales.
type SaleService interface {
	Finalize(ctx context.Context, input FinalizeSaleInput) (*domain.SaleResult, error)
	GetSale(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error)
}

// LotService defines the application service port for browsing and
// administering stock lots.
type LotService interface {
	ListLots(ctx context.Context, productID uuid.UUID) (*LotListing, error)
	CreateLot(ctx context.Context, lot *domain.StockLot) error
	DeleteLot(ctx context.Context, lotID uuid.UUID) error
}

// CartService prices a prospective cart without reserving stock.
type CartService interface {
	Quote(ctx context.Context, input QuoteCartInput) (*CartQuote, error)
}

// SaleLineInput is one requested line of a sale.
type SaleLineInput struct {
	ProductID  uuid.UUID
	LotID      uuid.UUID
	Quantity   int
	SaleFormat domain.SaleFormat
	// SpecificPrice is what the client displayed. It is only compared
	// against the recomputed price and never charged.
	SpecificPrice decimal.NullDecimal
}

// FinalizeSaleInput holds everything needed to settle a cart.
type FinalizeSaleInput struct {
	SellerID       string
	IdempotencyKey string
	Lines          []SaleLineInput
	Discount       *domain.Discount
}

// QuoteCartInput reuses the sale line shape for pricing previews.
type QuoteCartInput struct {
	Lines    []SaleLineInput
	Discount *domain.Discount
}

// CartQuote is a priced cart preview.
type CartQuote struct {
	Lines    []domain.CartLine   `json:"lines"`
	Warnings map[string][]string `json:"warnings,omitempty"`
	Totals   domain.CartTotals   `json:"totals"`
	Discount *domain.Discount    `json:"discount,omitempty"`
}

// LotListing is the FEFO ranked view of a product's lots.
type LotListing struct {
	ProductID   uuid.UUID         `json:"product_id"`
	Lots        []domain.StockLot `json:"lots"`
	Recommended *domain.StockLot  `json:"recommended,omitempty"`
}
