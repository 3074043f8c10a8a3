// Package errors provides custom error types for the wealthplan API.
// All service-layer errors should use AppError so that responses stay
// consistent and never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so wrapped
// copies still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WrapWithMessage combines Wrap and WithMessage.
func WrapWithMessage(sentinel *AppError, message string, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Objective errors.
var (
	ErrNoObjectiveFound = &AppError{Code: "NO_OBJECTIVE_FOUND", Message: "No investment objective found", StatusCode: http.StatusNotFound}
)

// Advisory errors.
var (
	ErrAdvisoryUnavailable       = &AppError{Code: "ADVISORY_UNAVAILABLE", Message: "The advisory service is unavailable", StatusCode: http.StatusServiceUnavailable}
	ErrMalformedAdvisoryResponse = &AppError{Code: "MALFORMED_ADVISORY_RESPONSE", Message: "The advisory service returned an unreadable response", StatusCode: http.StatusBadGateway}
)

// Portfolio allocation errors.
var (
	ErrInvalidDistribution   = &AppError{Code: "INVALID_DISTRIBUTION", Message: "Segment weights are invalid", StatusCode: http.StatusUnprocessableEntity}
	ErrInvalidAssetSelection = &AppError{Code: "INVALID_ASSET_SELECTION", Message: "The advisory asset selection is invalid", StatusCode: http.StatusBadGateway}
	ErrAllocationNotFound    = &AppError{Code: "ALLOCATION_NOT_FOUND", Message: "No allocation generated for this portfolio", StatusCode: http.StatusNotFound}
	ErrNoSelectionFound      = &AppError{Code: "NO_SELECTION_FOUND", Message: "No portfolio has been selected", StatusCode: http.StatusNotFound}
	ErrAllocationConflict    = &AppError{Code: "ALLOCATION_CONFLICT", Message: "The stored weights changed while assets were being generated", StatusCode: http.StatusConflict}
)
