// internal/core/services/sale.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxIdempotencyKeyLength = 128

// SaleService settles carts into committed sales
type SaleService struct {
	uow       ports.SaleUnitOfWork
	lots      ports.StockLotRepository
	sales     ports.SaleRepository
	guard     ports.IdempotencyGuard
	publisher ports.SaleEventPublisher
	pricing   domain.PricingCalculator
	logger    *slog.Logger
}

// Statically assert that *SaleService implements the SaleService interface.
var _ ports.SaleService = (*SaleService)(nil)

// SaleOption configures optional collaborators of the SaleService.
type SaleOption func(*SaleService)

// WithIdempotencyGuard refuses duplicate requests while the first is in flight.
func WithIdempotencyGuard(guard ports.IdempotencyGuard) SaleOption {
	return func(s *SaleService) { s.guard = guard }
}

// WithEventPublisher enqueues post-commit work.
func WithEventPublisher(publisher ports.SaleEventPublisher) SaleOption {
	return func(s *SaleService) { s.publisher = publisher }
}

// NewSaleService creates a new sale service
func NewSaleService(
	uow ports.SaleUnitOfWork,
	lots ports.StockLotRepository,
	sales ports.SaleRepository,
	policy domain.PricingPolicy,
	logger *slog.Logger,
	opts ...SaleOption,
) *SaleService {
	s := &SaleService{
		uow:     uow,
		lots:    lots,
		sales:   sales,
		pricing: domain.NewPricingCalculator(policy),
		logger:  logger.With(slog.String("service", "sale")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lotDemand is the cumulative quantity requested from one lot.
type lotDemand struct {
	LotID     uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// Finalize validates the input, then in a single transaction locks every
// referenced lot, checks stock, decrements it, prices each line from the
// locked lot and records the sale with its line items.
func (s *SaleService) Finalize(ctx context.Context, input ports.FinalizeSaleInput) (*domain.SaleResult, error) {
	if err := validateFinalizeInput(input); err != nil {
		return nil, err
	}

	if input.IdempotencyKey != "" {
		replayed, err := s.replay(ctx, input)
		if err != nil || replayed != nil {
			return replayed, err
		}

		release, err := s.acquire(ctx, input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	demands := groupByLot(input.Lines)

	known, err := s.lots.FindByIDs(ctx, lotIDs(demands))
	if err != nil {
		return nil, s.classify(ctx, "load lots", err)
	}
	if err := checkLinesAgainstLots(input.Lines, known); err != nil {
		return nil, err
	}

	var sale *domain.Sale
	err = s.uow.Execute(ctx, func(tx ports.SaleTx) error {
		locked, err := tx.LockLots(ctx, lotIDs(demands))
		if err != nil {
			return err
		}

		for _, d := range demands {
			lot, ok := locked[d.LotID]
			if !ok {
				return domain.NewValidationError(fmt.Sprintf("unknown lot %s", d.LotID))
			}
			if d.Quantity > lot.CurrentQuantity {
				return &domain.InsufficientStockError{
					ProductID: d.ProductID,
					LotID:     d.LotID,
					Requested: d.Quantity,
					Available: lot.CurrentQuantity,
				}
			}
		}

		for _, d := range demands {
			if err := tx.DecrementLot(ctx, d.LotID, d.Quantity); err != nil {
				return err
			}
		}

		sale = s.buildSale(ctx, input, locked)

		if err := tx.InsertSale(ctx, sale); err != nil {
			return err
		}
		return tx.InsertLineItems(ctx, sale.Items)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateSaleKey) {
			replayed, replayErr := s.replay(ctx, input)
			if replayErr != nil || replayed != nil {
				return replayed, replayErr
			}
			return nil, s.classify(ctx, "finalize sale", &domain.ConcurrencyConflictError{Op: "finalize sale", Err: err})
		}
		return nil, s.classify(ctx, "finalize sale", err)
	}

	s.logger.InfoContext(ctx, "sale committed",
		slog.String("sale_id", sale.ID.String()),
		slog.Int64("ticket_number", sale.TicketNumber),
		slog.String("seller_id", sale.SellerID),
		slog.Int("lines", len(sale.Items)),
		slog.Int("units", sale.UnitsSold()),
		slog.String("total", sale.TotalAmount.String()))

	s.publish(ctx, sale)

	return sale.Result(), nil
}

// buildSale prices every line from the locked lots. Prices sent by the
// client are only compared, never used.
func (s *SaleService) buildSale(ctx context.Context, input ports.FinalizeSaleInput, locked map[uuid.UUID]domain.StockLot) *domain.Sale {
	sale := &domain.Sale{
		ID:       uuid.New(),
		SellerID: input.SellerID,
		Items:    make([]domain.SaleLineItem, 0, len(input.Lines)),
	}
	if input.IdempotencyKey != "" {
		key := input.IdempotencyKey
		sale.IdempotencyKey = &key
	}

	subtotal := decimal.Zero
	for _, line := range input.Lines {
		quote := s.pricing.Calculate(locked[line.LotID], line.Quantity, line.SaleFormat)

		if line.SpecificPrice.Valid && !line.SpecificPrice.Decimal.Equal(quote.AppliedPrice) {
			s.logger.InfoContext(ctx, "client price differs from recomputed price",
				slog.String("lot_id", line.LotID.String()),
				slog.String("client_price", line.SpecificPrice.Decimal.String()),
				slog.String("applied_price", quote.AppliedPrice.String()),
				slog.String("price_tier", string(quote.PriceTier)))
		}

		subtotal = subtotal.Add(quote.TotalPrice)
		sale.Items = append(sale.Items, domain.SaleLineItem{
			SaleID:       sale.ID,
			ProductID:    line.ProductID,
			LotID:        line.LotID,
			QuantitySold: line.Quantity,
			PriceAtSale:  quote.AppliedPrice,
			SaleFormat:   line.SaleFormat,
			IsWholesale:  quote.PriceTier == domain.TierWholesale,
			Savings:      quote.Savings,
		})
	}

	sale.Subtotal = subtotal
	sale.ApplyDiscountSnapshot(input.Discount, domain.ApplyDiscount(subtotal, input.Discount))

	return sale
}

// GetSale returns a committed sale with its line items.
func (s *SaleService) GetSale(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, domain.ErrSaleNotFound) {
			return nil, err
		}
		return nil, s.classify(ctx, "get sale", err)
	}
	return sale, nil
}

// replay returns the committed result for the input's key, or nil when no
// sale used it. A key reused for a different cart is rejected.
func (s *SaleService) replay(ctx context.Context, input ports.FinalizeSaleInput) (*domain.SaleResult, error) {
	key := input.IdempotencyKey
	sale, err := s.sales.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrSaleNotFound) {
			return nil, nil
		}
		return nil, s.classify(ctx, "lookup idempotency key", err)
	}

	if !sameCart(sale, input) {
		s.logger.WarnContext(ctx, "idempotency key reused for a different cart",
			slog.String("sale_id", sale.ID.String()),
			slog.String("idempotency_key", key))
		return nil, domain.NewValidationError(
			fmt.Sprintf("idempotency key %q was already used for a different sale", key))
	}

	s.logger.InfoContext(ctx, "replaying committed sale",
		slog.String("sale_id", sale.ID.String()),
		slog.String("idempotency_key", key))

	result := sale.Result()
	result.Replayed = true
	return result, nil
}

func (s *SaleService) acquire(ctx context.Context, key string) (func(), error) {
	noop := func() {}
	if s.guard == nil {
		return noop, nil
	}

	ok, err := s.guard.Acquire(ctx, key)
	if err != nil {
		// the unique key on sales still prevents a double sale
		s.logger.WarnContext(ctx, "idempotency guard unavailable",
			slog.String("idempotency_key", key),
			slog.String("error", err.Error()))
		return noop, nil
	}
	if !ok {
		return nil, &domain.ConcurrencyConflictError{
			Op:  "finalize sale",
			Err: fmt.Errorf("a sale with idempotency key %q is already in progress", key),
		}
	}

	return func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.WarnContext(ctx, "failed to release idempotency key",
				slog.String("idempotency_key", key),
				slog.String("error", err.Error()))
		}
	}, nil
}

func (s *SaleService) publish(ctx context.Context, sale *domain.Sale) {
	if s.publisher == nil {
		return
	}

	event := ports.SaleCommittedEvent{
		SaleID:       sale.ID,
		TicketNumber: sale.TicketNumber,
		SellerID:     sale.SellerID,
		Result:       sale.Result(),
	}
	seenProducts := make(map[uuid.UUID]bool)
	seenLots := make(map[uuid.UUID]bool)
	for _, item := range sale.Items {
		if !seenProducts[item.ProductID] {
			seenProducts[item.ProductID] = true
			event.ProductIDs = append(event.ProductIDs, item.ProductID)
		}
		if !seenLots[item.LotID] {
			seenLots[item.LotID] = true
			event.LotIDs = append(event.LotIDs, item.LotID)
		}
	}

	if err := s.publisher.PublishSaleCommitted(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish sale committed event",
			slog.String("sale_id", sale.ID.String()),
			slog.String("error", err.Error()))
	}
}

// classify maps err onto the failure taxonomy, logging storage faults.
func (s *SaleService) classify(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.WarnContext(ctx, "sale operation interrupted",
			slog.String("op", op),
			slog.String("error", err.Error()))
		return &domain.ConcurrencyConflictError{Op: op, Err: err}
	}

	var coded domain.CodedError
	if errors.As(err, &coded) {
		switch coded.Code() {
		case domain.CodeValidation:
			return err
		case domain.CodeInsufficientStock:
			s.logger.InfoContext(ctx, "sale rejected for insufficient stock",
				slog.String("op", op),
				slog.String("error", err.Error()))
			return err
		case domain.CodeConcurrencyConflict:
			s.logger.WarnContext(ctx, "sale concurrency conflict",
				slog.String("op", op),
				slog.String("error", err.Error()))
			return err
		}
	}

	s.logger.ErrorContext(ctx, "sale persistence failure",
		slog.String("op", op),
		slog.String("error", err.Error()))

	var persistence *domain.PersistenceError
	if errors.As(err, &persistence) {
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

func validateFinalizeInput(input ports.FinalizeSaleInput) error {
	var problems []string

	if input.SellerID == "" {
		problems = append(problems, "seller_id is required")
	}
	if len(input.IdempotencyKey) > maxIdempotencyKeyLength {
		problems = append(problems, fmt.Sprintf("idempotency key longer than %d characters", maxIdempotencyKeyLength))
	}
	if len(input.Lines) == 0 {
		problems = append(problems, "cart is empty")
	}

	for i, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			problems = append(problems, fmt.Sprintf("line %d: product_id is required", i+1))
		}
		if line.LotID == uuid.Nil {
			problems = append(problems, fmt.Sprintf("line %d: lot_id is required", i+1))
		}
		if line.Quantity < 1 {
			problems = append(problems, fmt.Sprintf("line %d: quantity must be at least 1", i+1))
		}
		if line.Quantity > domain.MaxLineQuantity {
			problems = append(problems, fmt.Sprintf("line %d: quantity exceeds %d", i+1, domain.MaxLineQuantity))
		}
		if !line.SaleFormat.IsValid() {
			problems = append(problems, fmt.Sprintf("line %d: unknown sale format %q", i+1, line.SaleFormat))
		}
	}

	problems = append(problems, lotTotalProblems(input.Lines)...)

	if input.Discount != nil {
		if err := input.Discount.Validate(); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				problems = append(problems, verr.Problems...)
			}
		}
	}

	if len(problems) > 0 {
		return domain.NewValidationError(problems...)
	}
	return nil
}

// lotTotalProblems reports lots whose summed demand exceeds the per-lot cap.
// Lines already out of range are left to the per-line check.
func lotTotalProblems(lines []ports.SaleLineInput) []string {
	totals := make(map[uuid.UUID]int)
	var order []uuid.UUID
	for _, line := range lines {
		if line.Quantity < 1 || line.Quantity > domain.MaxLineQuantity {
			return nil
		}
		if _, ok := totals[line.LotID]; !ok {
			order = append(order, line.LotID)
		}
		totals[line.LotID] += line.Quantity
	}

	var problems []string
	for _, id := range order {
		if totals[id] > domain.MaxLineQuantity {
			problems = append(problems, fmt.Sprintf("lot %s: total quantity %d exceeds %d", id, totals[id], domain.MaxLineQuantity))
		}
	}
	return problems
}

func checkLinesAgainstLots(lines []ports.SaleLineInput, known map[uuid.UUID]domain.StockLot) error {
	var problems []string
	for i, line := range lines {
		lot, ok := known[line.LotID]
		if !ok {
			problems = append(problems, fmt.Sprintf("line %d: unknown lot %s", i+1, line.LotID))
			continue
		}
		if lot.ProductID != line.ProductID {
			problems = append(problems, fmt.Sprintf("line %d: lot %s does not belong to product %s", i+1, line.LotID, line.ProductID))
		}
	}
	if len(problems) > 0 {
		return domain.NewValidationError(problems...)
	}
	return nil
}

// groupByLot sums requested quantities per lot, ordered by lot id so that
// locks are always taken in the same order.
func groupByLot(lines []ports.SaleLineInput) []lotDemand {
	index := make(map[uuid.UUID]int)
	var demands []lotDemand

	for _, line := range lines {
		if i, ok := index[line.LotID]; ok {
			demands[i].Quantity += line.Quantity
			continue
		}
		index[line.LotID] = len(demands)
		demands = append(demands, lotDemand{
			LotID:     line.LotID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	sort.Slice(demands, func(i, j int) bool {
		return bytes.Compare(demands[i].LotID[:], demands[j].LotID[:]) < 0
	})
	return demands
}

type cartEntry struct {
	LotID  uuid.UUID
	Format domain.SaleFormat
}

// sameCart reports whether input asks for what sale already settled: the
// same seller and the same units per lot and format.
func sameCart(sale *domain.Sale, input ports.FinalizeSaleInput) bool {
	if sale.SellerID != input.SellerID {
		return false
	}

	units := make(map[cartEntry]int)
	for _, item := range sale.Items {
		units[cartEntry{item.LotID, item.SaleFormat}] += item.QuantitySold
	}
	for _, line := range input.Lines {
		units[cartEntry{line.LotID, line.SaleFormat}] -= line.Quantity
	}
	for _, n := range units {
		if n != 0 {
			return false
		}
	}
	return true
}

func lotIDs(demands []lotDemand) []uuid.UUID {
	ids := make([]uuid.UUID, len(demands))
	for i, d := range demands {
		ids[i] = d.LotID
	}
	return ids
}
