package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidationErrorCarriesFirstField(t *testing.T) {
	err := NewValidationError([]FieldError{
		{Field: "items[0].quantity", Message: "must be greater than zero"},
		{Field: "discount", Message: "must not be negative"},
	})

	assert.Equal(t, http.StatusBadRequest, err.Code)
	assert.Equal(t, CodeValidation, err.ErrorCode)
	assert.Equal(t, "items[0].quantity", err.Field)
	assert.Equal(t, "must be greater than zero", err.Message)
	assert.Len(t, err.Errors, 2)
}

func TestGetAppErrorHidesUnknownErrors(t *testing.T) {
	err := GetAppError(errors.New("pq: relation \"sales\" does not exist"))

	assert.Equal(t, http.StatusInternalServerError, err.Code)
	assert.Equal(t, CodeInternal, err.ErrorCode)
	assert.Equal(t, "Internal server error", err.Message)
}

func TestGetAppErrorUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("checkout: %w", NewBusinessError(CodeInsufficientFunds, "Tendered amount is lower than the total"))

	err := GetAppError(wrapped)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Code)
	assert.True(t, HasCode(wrapped, CodeInsufficientFunds))
	assert.False(t, HasCode(wrapped, CodeCreditLimitExceeded))
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewNotFoundError("Sale"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
}
