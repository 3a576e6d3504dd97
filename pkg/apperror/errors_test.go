package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorFormat(t *testing.T) {
	e := New("VAL_002", "bad amount", http.StatusBadRequest)
	assert.Equal(t, "[VAL_002] bad amount", e.Error())

	wrapped := Wrap("SYS_001", "db down", http.StatusInternalServerError, errors.New("conn refused"))
	assert.Equal(t, "[SYS_001] db down: conn refused", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("deadlock detected")
	e := ErrConcurrencyConflict(inner)

	assert.True(t, errors.Is(e, inner))

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("confirm: %w", e), &appErr))
	assert.Equal(t, "CON_001", appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
}

func TestInvariantErrors_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code string
		http int
	}{
		{"empty participants", ErrEmptyParticipants(), "INV_001", http.StatusUnprocessableEntity},
		{"negative total", ErrNegativeTotal(), "INV_002", http.StatusUnprocessableEntity},
		{"self settlement", ErrSelfSettlement(), "INV_003", http.StatusUnprocessableEntity},
		{"not pending", ErrSettlementNotPending("DISPUTED"), "INV_004", http.StatusConflict},
		{"not found", ErrNotFound("settlement"), "LED_001", http.StatusNotFound},
		{"out of range", ErrAmountOutOfRange(), "VAL_001", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.http, tt.err.HTTPStatus)
		})
	}
}

func TestErrSettlementNotPending_MessageIncludesStatus(t *testing.T) {
	e := ErrSettlementNotPending("CONFIRMED")
	assert.Contains(t, e.Message, "CONFIRMED")
}
