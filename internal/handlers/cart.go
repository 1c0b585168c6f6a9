// internal/handlers/cart.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// CartHandler prices carts before they are settled
type CartHandler struct {
	service ports.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(service ports.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "cart")),
	}
}

// QuoteCartRequest takes the same line shape as a sale
type QuoteCartRequest struct {
	Lines    []SaleLineRequest `json:"lines"`
	Discount *DiscountRequest  `json:"discount,omitempty"`
}

// Quote handles POST /api/v1/cart/quote
func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteCartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondValidation(w, h.logger, "invalid request body: "+err.Error())
		return
	}

	lines, err := toLineInputs(req.Lines)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	quote, err := h.service.Quote(r.Context(), ports.QuoteCartInput{
		Lines:    lines,
		Discount: req.Discount.toDomain(),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, quote)
}
