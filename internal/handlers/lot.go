// internal/handlers/lot.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// LotHandler exposes lot browsing and administration
type LotHandler struct {
	service ports.LotService
	logger  *slog.Logger
}

// NewLotHandler creates a new lot handler
func NewLotHandler(service ports.LotService, logger *slog.Logger) *LotHandler {
	return &LotHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "lot")),
	}
}

// CreateLotRequest represents the request body for registering a lot
type CreateLotRequest struct {
	Barcode            string              `json:"barcode,omitempty"`
	InitialQuantity    int                 `json:"initial_quantity"`
	PurchasePrice      decimal.Decimal     `json:"purchase_price"`
	SalePriceUnit      decimal.Decimal     `json:"sale_price_unit"`
	SalePriceBox       decimal.Decimal     `json:"sale_price_box"`
	SalePriceWholesale decimal.NullDecimal `json:"sale_price_wholesale"`
	// ExpirationDate is a calendar day, YYYY-MM-DD
	ExpirationDate string `json:"expiration_date,omitempty"`
}

// ListLots handles GET /api/v1/products/{id}/lots
func (h *LotHandler) ListLots(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(r, "id")
	if !ok {
		respondValidation(w, h.logger, "invalid product id format")
		return
	}

	listing, err := h.service.ListLots(r.Context(), productID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, listing)
}

// CreateLot handles POST /api/v1/products/{id}/lots
func (h *LotHandler) CreateLot(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseUUIDParam(r, "id")
	if !ok {
		respondValidation(w, h.logger, "invalid product id format")
		return
	}

	var req CreateLotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondValidation(w, h.logger, "invalid request body: "+err.Error())
		return
	}

	lot := &domain.StockLot{
		ProductID:          productID,
		Barcode:            req.Barcode,
		InitialQuantity:    req.InitialQuantity,
		CurrentQuantity:    req.InitialQuantity,
		PurchasePrice:      req.PurchasePrice,
		SalePriceUnit:      req.SalePriceUnit,
		SalePriceBox:       req.SalePriceBox,
		SalePriceWholesale: req.SalePriceWholesale,
	}

	if req.ExpirationDate != "" {
		expires, err := time.Parse(time.DateOnly, req.ExpirationDate)
		if err != nil {
			respondValidation(w, h.logger, "expiration_date must be formatted as YYYY-MM-DD")
			return
		}
		lot.ExpirationDate = &expires
	}

	if err := h.service.CreateLot(r.Context(), lot); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/v1/products/"+productID.String()+"/lots")
	respondJSON(w, h.logger, http.StatusCreated, lot)
}

// DeleteLot handles DELETE /api/v1/lots/{id}
func (h *LotHandler) DeleteLot(w http.ResponseWriter, r *http.Request) {
	lotID, ok := parseUUIDParam(r, "id")
	if !ok {
		respondValidation(w, h.logger, "invalid lot id format")
		return
	}

	if err := h.service.DeleteLot(r.Context(), lotID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
