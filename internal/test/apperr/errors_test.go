package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"virtual-fit-backend/internal/apperr"
)

func TestConstructors_FormatMessages(t *testing.T) {
	err := apperr.NotFound("scan session %s not found", "abc")
	assert.Equal(t, apperr.CodeNotFound, err.Code)
	assert.Equal(t, "scan session abc not found", err.Message)

	err = apperr.Conflict("order %s cannot be cancelled in status %s", "o-1", "shipped")
	assert.Equal(t, apperr.CodeConflictingState, err.Code)
	assert.Equal(t, "order o-1 cannot be cancelled in status shipped", err.Message)
}

func TestHTTPStatus_Mapping(t *testing.T) {
	cases := []struct {
		err  *apperr.Error
		want int
	}{
		{apperr.NotFound("x"), http.StatusNotFound},
		{apperr.Forbidden("x"), http.StatusForbidden},
		{apperr.Validation("x"), http.StatusBadRequest},
		{apperr.Conflict("x"), http.StatusBadRequest},
		{apperr.Exhausted("x"), http.StatusBadRequest},
		{apperr.ProcessingFailed("x"), http.StatusInternalServerError},
		{apperr.Unauthorized("x"), http.StatusUnauthorized},
		{apperr.Internal("x", nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.HTTPStatus(), "code %s", tc.err.Code)
	}
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperr.Internal("failed to load scan session", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to load scan session")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFrom_PassesThroughAppErrors(t *testing.T) {
	original := apperr.Validation("quantity must be at least 1")
	got := apperr.From(original)
	assert.Equal(t, original, got)

	// Also when wrapped
	wrapped := fmt.Errorf("add item: %w", original)
	got = apperr.From(wrapped)
	assert.Equal(t, apperr.CodeValidationFailed, got.Code)
	assert.Equal(t, "quantity must be at least 1", got.Message)
}

func TestFrom_WrapsUnknownErrors(t *testing.T) {
	got := apperr.From(errors.New("boom"))
	assert.Equal(t, apperr.CodeInternal, got.Code)
	assert.Equal(t, "internal server error", got.Message)
	assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus())
}

func TestIsCode(t *testing.T) {
	err := apperr.Exhausted("batch size %d exceeds the maximum of %d", 6, 5)

	assert.True(t, apperr.IsCode(err, apperr.CodeResourceExhausted))
	assert.False(t, apperr.IsCode(err, apperr.CodeNotFound))
	assert.True(t, apperr.IsCode(fmt.Errorf("wrapped: %w", err), apperr.CodeResourceExhausted))
	assert.False(t, apperr.IsCode(errors.New("boom"), apperr.CodeInternal))
}
