// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
)

// Codes outside the sale failure taxonomy, used by the lookup and lot
// administration endpoints.
const (
	CodeNotFound domain.ErrorCode = "NOT_FOUND"
	CodeLotInUse domain.ErrorCode = "LOT_IN_USE"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Details interface{}      `json:"details,omitempty"`
}

// insufficientStockDetails tells the caller which lot fell short
type insufficientStockDetails struct {
	ProductID uuid.UUID `json:"productId"`
	LotID     uuid.UUID `json:"lotId"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
	Shortfall int       `json:"shortfall"`
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondValidation(w http.ResponseWriter, logger *slog.Logger, problems ...string) {
	respondJSON(w, logger, http.StatusBadRequest, ErrorResponse{
		Code:    domain.CodeValidation,
		Message: "validation failed",
		Details: problems,
	})
}

func respondNotFound(w http.ResponseWriter, logger *slog.Logger, message string) {
	respondJSON(w, logger, http.StatusNotFound, ErrorResponse{
		Code:    CodeNotFound,
		Message: message,
	})
}

// respondError maps err onto the failure taxonomy. Coded errors win over the
// lookup sentinels they may wrap. Storage faults are reported with a generic
// message; the cause is only logged.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var coded domain.CodedError
	if errors.As(err, &coded) {
		respondCoded(w, r, logger, err)
		return
	}

	switch {
	case errors.Is(err, domain.ErrLotNotFound):
		respondNotFound(w, logger, "stock lot not found")
	case errors.Is(err, domain.ErrProductNotFound):
		respondNotFound(w, logger, "product not found")
	case errors.Is(err, domain.ErrSaleNotFound):
		respondNotFound(w, logger, "sale not found")
	case errors.Is(err, domain.ErrLotHasSales):
		respondJSON(w, logger, http.StatusConflict, ErrorResponse{
			Code:    CodeLotInUse,
			Message: "stock lot has recorded sales and cannot be deleted",
		})
	default:
		respondPersistence(w, r, logger, err)
	}
}

func respondCoded(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		respondValidation(w, logger, validation.Problems...)
		return
	}

	var stock *domain.InsufficientStockError
	if errors.As(err, &stock) {
		respondJSON(w, logger, http.StatusUnprocessableEntity, ErrorResponse{
			Code:    domain.CodeInsufficientStock,
			Message: stock.Error(),
			Details: insufficientStockDetails{
				ProductID: stock.ProductID,
				LotID:     stock.LotID,
				Requested: stock.Requested,
				Available: stock.Available,
				Shortfall: stock.Shortfall(),
			},
		})
		return
	}

	var conflict *domain.ConcurrencyConflictError
	if errors.As(err, &conflict) {
		w.Header().Set("Retry-After", "1")
		respondJSON(w, logger, http.StatusConflict, ErrorResponse{
			Code:    domain.CodeConcurrencyConflict,
			Message: "the stock changed while the sale was processed, please retry",
		})
		return
	}

	respondPersistence(w, r, logger, err)
}

func respondPersistence(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()))

	respondJSON(w, logger, http.StatusInternalServerError, ErrorResponse{
		Code:    domain.CodePersistence,
		Message: "the operation could not be completed",
	})
}

func decodeJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// parseQuantity accepts integral JSON numbers only
func parseQuantity(n json.Number) (int, error) {
	if n == "" {
		return 0, domain.NewValidationError("quantity is required")
	}
	raw, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, domain.NewValidationError("quantity must be a number")
	}
	return domain.QuantityFromDecimal(raw)
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
