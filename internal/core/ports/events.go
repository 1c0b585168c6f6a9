// internal/core/ports/events.go
package ports

import (
	"context"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/google/uuid"
)

// SaleCommittedEvent is emitted after a sale transaction commits.
type SaleCommittedEvent struct {
	SaleID       uuid.UUID          `json:"sale_id"`
	TicketNumber int64              `json:"ticket_number"`
	SellerID     string             `json:"seller_id"`
	ProductIDs   []uuid.UUID        `json:"product_ids"`
	LotIDs       []uuid.UUID        `json:"lot_ids"`
	Result       *domain.SaleResult `json:"result"`
}

// SaleEventPublisher hands post-commit work to background workers.
type SaleEventPublisher interface {
	PublishSaleCommitted(ctx context.Context, event SaleCommittedEvent) error
}

// LedgerArchive stores a snapshot of a committed sale for reporting.
type LedgerArchive interface {
	ArchiveSale(ctx context.Context, sale *domain.Sale) (string, error)
}
