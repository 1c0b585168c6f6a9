// internal/handlers/sale.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
)

// HeaderIdempotencyKey may carry the idempotency key instead of the body
const HeaderIdempotencyKey = "Idempotency-Key"

// SaleHandler handles sale finalization and lookup
type SaleHandler struct {
	service ports.SaleService
	logger  *slog.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(service ports.SaleService, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "sale")),
	}
}

// FinalizeSale handles POST /api/v1/sales
func (h *SaleHandler) FinalizeSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req FinalizeSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondValidation(w, h.logger, "invalid request body: "+err.Error())
		return
	}

	if req.SellerID == "" {
		req.SellerID = logger.SellerIDFrom(ctx)
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	}

	input, err := req.ToInput()
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	result, err := h.service.Finalize(ctx, input)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/api/v1/sales/"+result.SaleID.String())
	respondJSON(w, h.logger, status, result)
}

// GetSale handles GET /api/v1/sales/{id}
func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	saleID, ok := parseUUIDParam(r, "id")
	if !ok {
		respondValidation(w, h.logger, "invalid sale id format")
		return
	}

	sale, err := h.service.GetSale(r.Context(), saleID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, sale)
}

// Request DTOs

// SaleLineRequest is one requested cart line
type SaleLineRequest struct {
	ProductID     uuid.UUID         `json:"productId"`
	LotID         uuid.UUID         `json:"lotId"`
	Quantity      json.Number       `json:"quantity"`
	SaleFormat    domain.SaleFormat `json:"saleFormat"`
	SpecificPrice *decimal.Decimal  `json:"specificPrice,omitempty"`
}

// DiscountRequest is the optional global discount
type DiscountRequest struct {
	Type  domain.DiscountType `json:"type"`
	Value decimal.Decimal     `json:"value"`
}

// FinalizeSaleRequest represents the request body for finalizing a sale
type FinalizeSaleRequest struct {
	SellerID       string            `json:"sellerId"`
	IdempotencyKey string            `json:"idempotencyKey,omitempty"`
	Lines          []SaleLineRequest `json:"lines"`
	Discount       *DiscountRequest  `json:"discount,omitempty"`
}

// ToInput converts the request into service input. Only transport level
// problems are reported here; business rules are checked by the service.
func (req *FinalizeSaleRequest) ToInput() (ports.FinalizeSaleInput, error) {
	lines, err := toLineInputs(req.Lines)
	if err != nil {
		return ports.FinalizeSaleInput{}, err
	}

	return ports.FinalizeSaleInput{
		SellerID:       strings.TrimSpace(req.SellerID),
		IdempotencyKey: req.IdempotencyKey,
		Lines:          lines,
		Discount:       req.Discount.toDomain(),
	}, nil
}

func (d *DiscountRequest) toDomain() *domain.Discount {
	if d == nil {
		return nil
	}
	return &domain.Discount{Type: d.Type, Value: d.Value}
}

func toLineInputs(reqs []SaleLineRequest) ([]ports.SaleLineInput, error) {
	lines := make([]ports.SaleLineInput, 0, len(reqs))
	var problems []string

	for i, l := range reqs {
		qty, err := parseQuantity(l.Quantity)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				for _, p := range verr.Problems {
					problems = append(problems, fmt.Sprintf("line %d: %s", i+1, p))
				}
				continue
			}
			return nil, err
		}

		format := l.SaleFormat
		if format == "" {
			format = domain.FormatUnit
		}

		line := ports.SaleLineInput{
			ProductID:  l.ProductID,
			LotID:      l.LotID,
			Quantity:   qty,
			SaleFormat: format,
		}
		if l.SpecificPrice != nil {
			line.SpecificPrice = decimal.NewNullDecimal(*l.SpecificPrice)
		}
		lines = append(lines, line)
	}

	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}
	return lines, nil
}
