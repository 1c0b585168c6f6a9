// internal/core/domain/product.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry. Its stock lives in StockLots.
type Product struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand,omitempty"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate performs domain validation on the product
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("product name is required")
	}
	return nil
}

// PrepareForStorage assigns an id and timestamp when missing.
func (p *Product) PrepareForStorage() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}
