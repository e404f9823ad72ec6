package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes returned to clients
const (
	CodeValidation            = "VALIDATION_ERROR"
	CodeNotFound              = "NOT_FOUND"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeConflict              = "CONFLICT"
	CodeDiscountNotAuthorized = "DISCOUNT_NOT_AUTHORIZED"
	CodeShiftNotOpen          = "SHIFT_NOT_OPEN"
	CodeShiftAlreadyOpen      = "SHIFT_ALREADY_OPEN"
	CodeCreditNotAllowed      = "CREDIT_NOT_ALLOWED"
	CodeCreditLimitExceeded   = "CREDIT_LIMIT_EXCEEDED"
	CodeInsufficientFunds     = "INSUFFICIENT_FUNDS"
	CodeChangeRequiresCash    = "CHANGE_REQUIRES_CASH"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodeRecipeCycle           = "RECIPE_CYCLE"
	CodeReturnExceedsSold     = "RETURN_EXCEEDS_SOLD"
	CodeSaleNotReturnable     = "SALE_NOT_RETURNABLE"
	CodeSaleNotPending        = "SALE_NOT_CREDIT_PENDING"
	CodeIdempotencyKeyReused  = "IDEMPOTENCY_KEY_REUSED"
	CodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
	CodeInternal              = "INTERNAL_ERROR"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code      int          `json:"code"`
	ErrorCode string       `json:"error_code"`
	Message   string       `json:"message"`
	Field     string       `json:"field,omitempty"`
	Errors    []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.ErrorCode, e.Message, e.Field)
	}
	return e.ErrorCode + ": " + e.Message
}

// Is matches application errors by machine code so sentinels work with errors.Is
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.ErrorCode != "" && t.ErrorCode == e.ErrorCode
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, ErrorCode: CodeNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, ErrorCode: CodeUnauthorized, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, ErrorCode: CodeForbidden, Message: "Forbidden"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, ErrorCode: CodeInternal, Message: "Internal server error"}
	ErrServiceUnavailable = &AppError{Code: http.StatusServiceUnavailable, ErrorCode: CodeServiceUnavailable, Message: "The service is busy, please try again"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, ErrorCode: CodeUnauthorized, Message: "Invalid email or password"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, ErrorCode: CodeUnauthorized, Message: "Invalid token"}
)

// NewAppError creates a new application error
func NewAppError(code int, errorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		ErrorCode: errorCode,
		Message:   message,
	}
}

// NewValidationError creates a 400 error listing the offending fields
func NewValidationError(fieldErrors []FieldError) *AppError {
	err := &AppError{
		Code:      http.StatusBadRequest,
		ErrorCode: CodeValidation,
		Message:   "Validation failed",
		Errors:    fieldErrors,
	}
	if len(fieldErrors) > 0 {
		err.Field = fieldErrors[0].Field
		err.Message = fieldErrors[0].Message
	}
	return err
}

// NewFieldError creates a validation error for a single field
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewBadRequestError creates a 400 error that is not tied to a field
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:      http.StatusBadRequest,
		ErrorCode: CodeValidation,
		Message:   message,
	}
}

// NewBusinessError creates a 422 error for a request that is well formed but breaks a sales rule
func NewBusinessError(errorCode, message string) *AppError {
	return &AppError{
		Code:      http.StatusUnprocessableEntity,
		ErrorCode: errorCode,
		Message:   message,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:      http.StatusNotFound,
		ErrorCode: CodeNotFound,
		Message:   resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:      http.StatusConflict,
		ErrorCode: CodeConflict,
		Message:   message,
	}
}

// NewForbiddenError creates a 403 error with a specific code
func NewForbiddenError(errorCode, message string) *AppError {
	return &AppError{
		Code:      http.StatusForbidden,
		ErrorCode: errorCode,
		Message:   message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether err carries the given machine code
func HasCode(err error, errorCode string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.ErrorCode == errorCode
}

// GetAppError converts an error to AppError. Unknown errors become a generic
// 500 so internal details never reach the client.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer
}
