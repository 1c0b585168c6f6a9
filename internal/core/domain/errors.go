// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrorCode is the machine readable outcome of a failed sale operation.
type ErrorCode string

const (
	CodeValidation          ErrorCode = "VALIDATION"
	CodeInsufficientStock   ErrorCode = "INSUFFICIENT_STOCK"
	CodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"
	CodePersistence         ErrorCode = "PERSISTENCE"
)

// Sentinel errors returned by repositories and services.
var (
	ErrLotNotFound        = errors.New("stock lot not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrSaleNotFound       = errors.New("sale not found")
	ErrLotHasSales        = errors.New("stock lot has recorded sales")
	ErrLotExists          = errors.New("stock lot already exists")
	ErrCartLineNotFound   = errors.New("cart line not found")
	ErrDuplicateSaleKey   = errors.New("sale with this idempotency key already exists")
	ErrNegativeStockLevel = errors.New("stock level would become negative")
)

// CodedError is implemented by every error of the sale failure taxonomy.
type CodedError interface {
	error
	Code() ErrorCode
}

// CodeOf returns the taxonomy code carried by err. Errors outside the
// taxonomy are reported as persistence failures.
func CodeOf(err error) ErrorCode {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return CodePersistence
}

// ValidationError reports malformed input detected before any storage is touched.
type ValidationError struct {
	Problems []string
}

// NewValidationError builds a ValidationError from one or more problems.
func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Code() ErrorCode { return CodeValidation }

// InsufficientStockError names the lot that cannot cover the requested quantity.
type InsufficientStockError struct {
	ProductID uuid.UUID
	LotID     uuid.UUID
	Requested int
	Available int
}

// Shortfall is the number of units missing to satisfy the request.
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s in lot %s: requested %d, available %d (short by %d)",
		e.ProductID, e.LotID, e.Requested, e.Available, e.Shortfall())
}

func (e *InsufficientStockError) Code() ErrorCode { return CodeInsufficientStock }

// ConcurrencyConflictError reports a lock wait timeout or a serialization
// failure. Nothing was written and the whole operation can be retried.
type ConcurrencyConflictError struct {
	Op  string
	Err error
}

func (e *ConcurrencyConflictError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("concurrency conflict during %s", e.Op)
	}
	return fmt.Sprintf("concurrency conflict during %s: %v", e.Op, e.Err)
}

func (e *ConcurrencyConflictError) Unwrap() error { return e.Err }

func (e *ConcurrencyConflictError) Code() ErrorCode { return CodeConcurrencyConflict }

// PersistenceError wraps an unexpected storage fault.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Code() ErrorCode { return CodePersistence }
