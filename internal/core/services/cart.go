// internal/core/services/cart.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/google/uuid"
)

// CartService builds priced cart previews from unlocked lot reads.
type CartService struct {
	lots     ports.StockLotRepository
	products ports.ProductCatalog
	policy   domain.PricingPolicy
	logger   *slog.Logger
}

// Statically assert that *CartService implements the CartService interface.
var _ ports.CartService = (*CartService)(nil)

// NewCartService creates a new cart service
func NewCartService(lots ports.StockLotRepository, products ports.ProductCatalog, policy domain.PricingPolicy, logger *slog.Logger) *CartService {
	return &CartService{
		lots:     lots,
		products: products,
		policy:   policy,
		logger:   logger.With(slog.String("service", "cart")),
	}
}

// Quote adds every input line to a fresh cart in order and returns the
// priced result. Nothing is reserved; finalize re-checks stock under lock.
func (s *CartService) Quote(ctx context.Context, input ports.QuoteCartInput) (*ports.CartQuote, error) {
	if len(input.Lines) == 0 {
		return nil, domain.NewValidationError("cart is empty")
	}

	ids := make([]uuid.UUID, 0, len(input.Lines))
	productIDs := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		ids = append(ids, line.LotID)
		productIDs = append(productIDs, line.ProductID)
	}

	lots, err := s.lots.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load lots: %w", err)
	}
	products, err := s.products.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	cart := domain.NewCart(s.policy)
	warnings := make(map[string][]string)

	for i, line := range input.Lines {
		lot, ok := lots[line.LotID]
		if !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("line %d: unknown lot %s", i+1, line.LotID))
		}
		product, ok := products[line.ProductID]
		if !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("line %d: unknown product %s", i+1, line.ProductID))
		}

		result, err := cart.AddLine(product, lot, line.Quantity, line.SaleFormat)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return nil, domain.NewValidationError(prefixProblems(i+1, verr.Problems)...)
			}
			return nil, err
		}
		if len(result.Warnings) > 0 {
			key := line.LotID.String()
			warnings[key] = append(warnings[key], result.Warnings...)
		}
	}

	if err := cart.SetDiscount(input.Discount); err != nil {
		return nil, err
	}

	quote := &ports.CartQuote{
		Lines:    cart.Lines(),
		Totals:   cart.Totals(),
		Discount: cart.Discount(),
	}
	if len(warnings) > 0 {
		quote.Warnings = warnings
	}

	s.logger.DebugContext(ctx, "cart quoted",
		slog.Int("lines", len(quote.Lines)),
		slog.Int("items", quote.Totals.ItemCount),
		slog.String("total", quote.Totals.Total.String()))

	return quote, nil
}

func prefixProblems(line int, problems []string) []string {
	out := make([]string, len(problems))
	for i, p := range problems {
		out[i] = fmt.Sprintf("line %d: %s", line, p)
	}
	return out
}
