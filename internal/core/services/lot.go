// internal/core/services/lot.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/google/uuid"
)

// LotListingCacheKey is the cache key of a product's lot listing.
func LotListingCacheKey(productID uuid.UUID) string {
	return "lots:product:" + productID.String()
}

// LotService handles lot browsing and administration
type LotService struct {
	lots      ports.StockLotRepository
	products  ports.ProductCatalog
	cache     ports.CacheRepository
	cacheTTL  time.Duration
	policy    domain.PricingPolicy
	allocator domain.LotAllocator
	logger    *slog.Logger
}

// Statically assert that *LotService implements the LotService interface.
var _ ports.LotService = (*LotService)(nil)

// NewLotService creates a new lot service. cache may be nil.
func NewLotService(
	lots ports.StockLotRepository,
	products ports.ProductCatalog,
	cache ports.CacheRepository,
	cacheTTL time.Duration,
	policy domain.PricingPolicy,
	logger *slog.Logger,
) *LotService {
	return &LotService{
		lots:      lots,
		products:  products,
		cache:     cache,
		cacheTTL:  cacheTTL,
		policy:    policy,
		allocator: domain.NewLotAllocator(policy),
		logger:    logger.With(slog.String("service", "lot")),
	}
}

// ListLots returns the product's lots in FEFO order with the default pick.
// Quantities may be stale; they are re-read under lock at finalize time.
func (s *LotService) ListLots(ctx context.Context, productID uuid.UUID) (*ports.LotListing, error) {
	if _, err := s.products.FindProduct(ctx, productID); err != nil {
		return nil, err
	}

	lots, err := s.loadLots(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}

	listing := &ports.LotListing{
		ProductID: productID,
		Lots:      s.allocator.Rank(lots),
	}
	if rec, ok := s.allocator.Recommend(lots); ok {
		listing.Recommended = &rec
	}

	return listing, nil
}

func (s *LotService) loadLots(ctx context.Context, productID uuid.UUID) ([]domain.StockLot, error) {
	fetch := func() (interface{}, error) {
		return s.lots.FindByProduct(ctx, productID)
	}

	if s.cache == nil {
		return s.lots.FindByProduct(ctx, productID)
	}

	var lots []domain.StockLot
	if err := s.cache.GetOrSet(ctx, LotListingCacheKey(productID), &lots, fetch, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "lot cache unavailable, reading from store",
			slog.String("product_id", productID.String()),
			slog.String("error", err.Error()))
		return s.lots.FindByProduct(ctx, productID)
	}
	return lots, nil
}

// CreateLot registers a new lot after checking its invariants.
func (s *LotService) CreateLot(ctx context.Context, lot *domain.StockLot) error {
	if _, err := s.products.FindProduct(ctx, lot.ProductID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return domain.NewValidationError(fmt.Sprintf("unknown product %s", lot.ProductID))
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	lot.PrepareForStorage()
	if err := lot.Validate(s.policy); err != nil {
		return err
	}

	if err := s.lots.Save(ctx, lot); err != nil {
		if errors.Is(err, domain.ErrLotExists) {
			return domain.NewValidationError(fmt.Sprintf("lot %s already exists", lot.ID))
		}
		return fmt.Errorf("failed to save lot: %w", err)
	}

	s.invalidate(ctx, lot.ProductID)

	s.logger.InfoContext(ctx, "stock lot created",
		slog.String("lot_id", lot.ID.String()),
		slog.String("product_id", lot.ProductID.String()),
		slog.Int("quantity", lot.InitialQuantity))

	return nil
}

// DeleteLot removes a lot that has never been sold from. Lots referenced by
// the sale ledger are kept.
func (s *LotService) DeleteLot(ctx context.Context, lotID uuid.UUID) error {
	lot, err := s.lots.FindByID(ctx, lotID)
	if err != nil {
		return err
	}

	sold, err := s.lots.HasSales(ctx, lotID)
	if err != nil {
		return fmt.Errorf("failed to check lot sales: %w", err)
	}
	if sold {
		return domain.ErrLotHasSales
	}

	if err := s.lots.Delete(ctx, lotID); err != nil {
		return err
	}

	s.invalidate(ctx, lot.ProductID)

	s.logger.InfoContext(ctx, "stock lot deleted",
		slog.String("lot_id", lotID.String()),
		slog.String("product_id", lot.ProductID.String()))

	return nil
}

func (s *LotService) invalidate(ctx context.Context, productID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, LotListingCacheKey(productID)); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate lot cache",
			slog.String("product_id", productID.String()),
			slog.String("error", err.Error()))
	}
}
