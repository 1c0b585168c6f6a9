// internal/workers/sale_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
)

// SaleProcessor runs the post-commit work of a sale: it drops the cached lot
// listings of every sold product and archives a ledger snapshot.
type SaleProcessor struct {
	sales   ports.SaleRepository
	cache   ports.CacheRepository
	archive ports.LedgerArchive
	logger  *slog.Logger
}

// NewSaleProcessor creates a new sale processor. cache and archive may be nil.
func NewSaleProcessor(sales ports.SaleRepository, cache ports.CacheRepository, archive ports.LedgerArchive, logger *slog.Logger) *SaleProcessor {
	return &SaleProcessor{
		sales:   sales,
		cache:   cache,
		archive: archive,
		logger:  logger.With(slog.String("processor", "sale_committed")),
	}
}

// ProcessSaleCommitted handles a sale:committed task
func (p *SaleProcessor) ProcessSaleCommitted(ctx context.Context, t *asynq.Task) error {
	start := time.Now()
	if id, ok := asynq.GetTaskID(ctx); ok {
		ctx = logger.WithTaskID(ctx, id)
	}

	var event ports.SaleCommittedEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	p.logger.InfoContext(ctx, "processing committed sale",
		slog.String("sale_id", event.SaleID.String()),
		slog.Int64("ticket_number", event.TicketNumber),
		slog.Int("products", len(event.ProductIDs)))

	if err := p.invalidateLots(ctx, event); err != nil {
		return err
	}

	location, err := p.archiveSale(ctx, event)
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "committed sale processed",
		slog.String("sale_id", event.SaleID.String()),
		slog.String("archive_location", location),
		slog.String("processing_time", time.Since(start).String()))

	return nil
}

func (p *SaleProcessor) invalidateLots(ctx context.Context, event ports.SaleCommittedEvent) error {
	if p.cache == nil || len(event.ProductIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(event.ProductIDs))
	for _, productID := range event.ProductIDs {
		keys = append(keys, services.LotListingCacheKey(productID))
	}

	if err := p.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate lot listings: %w", err)
	}
	return nil
}

func (p *SaleProcessor) archiveSale(ctx context.Context, event ports.SaleCommittedEvent) (string, error) {
	if p.archive == nil {
		return "", nil
	}

	sale, err := p.sales.FindByID(ctx, event.SaleID)
	if err != nil {
		if errors.Is(err, domain.ErrSaleNotFound) {
			// committed sales are never deleted, so the payload is bogus
			return "", fmt.Errorf("sale %s: %v: %w", event.SaleID, err, asynq.SkipRetry)
		}
		return "", fmt.Errorf("failed to load sale %s: %w", event.SaleID, err)
	}

	location, err := p.archive.ArchiveSale(ctx, sale)
	if err != nil {
		return "", fmt.Errorf("failed to archive sale %s: %w", event.SaleID, err)
	}
	return location, nil
}
