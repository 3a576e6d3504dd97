package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Invariant violations (INV) ----
//
// These indicate the caller skipped a precondition. They are programmer
// errors and are never folded into a ValidationResult.

func ErrEmptyParticipants() *AppError {
	return New("INV_001", "Split must have at least one participant", http.StatusUnprocessableEntity)
}

func ErrNegativeTotal() *AppError {
	return New("INV_002", "Transaction amount must not be negative", http.StatusUnprocessableEntity)
}

func ErrSelfSettlement() *AppError {
	return New("INV_003", "A user cannot owe or settle with themselves", http.StatusUnprocessableEntity)
}

func ErrSettlementNotPending(status string) *AppError {
	return New("INV_004", fmt.Sprintf("Settlement is %s and cannot transition", status), http.StatusConflict)
}

func ErrCurrencyMismatch() *AppError {
	return New("INV_005", "Currency mismatch between amounts", http.StatusUnprocessableEntity)
}

func ErrSplitOnIncome() *AppError {
	return New("INV_006", "Only expense transactions may carry a split", http.StatusUnprocessableEntity)
}

func ErrPayerNotParticipant() *AppError {
	return New("INV_007", "Payer must be one of the participants", http.StatusUnprocessableEntity)
}

// ---- Lookup (LED) ----

func ErrNotFound(entity string) *AppError {
	return New("LED_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Request validation (VAL) ----

// ErrAmountOutOfRange is surfaced to clients as a normal validation error.
func ErrAmountOutOfRange() *AppError {
	return New("VAL_001", "Amount exceeds the maximum supported value", http.StatusBadRequest)
}

// Validation returns a request-shape validation error (malformed body,
// bad decimal string, unknown split type).
func Validation(message string) *AppError {
	return New("VAL_002", message, http.StatusBadRequest)
}

// ---- Concurrency (CON) ----

// ErrConcurrencyConflict is retryable: two writers raced on the same
// balance edge. Callers should re-read and retry the whole operation.
func ErrConcurrencyConflict(err error) *AppError {
	return Wrap("CON_001", "Concurrent update on the same balance, retry the operation", http.StatusConflict, err)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrLockTimeout(err error) *AppError {
	return Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
