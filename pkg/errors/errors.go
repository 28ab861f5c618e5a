package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the closed failure taxonomy of the auth flows.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRegistrationFailed = errors.New("registration failed")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrUserNotFound       = errors.New("user not found")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInternal           = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation creates a 400 error for malformed input shapes.
func Validation(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrValidation,
	}
}

// InvalidCredentials creates a 401 error for login failures. Lookup misses
// and password mismatches deliberately produce the exact same value so the
// two cases cannot be told apart by a caller.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid login or password",
		Status:  http.StatusUnauthorized,
		Err:     ErrInvalidCredentials,
	}
}

// RegistrationFailed creates a 400 error for a store-reported create failure.
func RegistrationFailed(reason string) *AppError {
	return &AppError{
		Code:    "REGISTRATION_FAILED",
		Message: reason,
		Status:  http.StatusBadRequest,
		Err:     ErrRegistrationFailed,
	}
}

// RefreshExpired creates a 401 error for a refresh token past its lifetime.
func RefreshExpired() *AppError {
	return &AppError{
		Code:    "TOKEN_EXPIRED",
		Message: "session expired, please log in again",
		Status:  http.StatusUnauthorized,
		Err:     ErrTokenExpired,
	}
}

// RefreshInvalid creates a 401 error for a malformed or tampered token.
func RefreshInvalid() *AppError {
	return &AppError{
		Code:    "TOKEN_INVALID",
		Message: "invalid token",
		Status:  http.StatusUnauthorized,
		Err:     ErrTokenInvalid,
	}
}

// UserNotFound creates a 401 error for a valid token whose subject no longer
// exists (the account may have been deleted after issuance).
func UserNotFound() *AppError {
	return &AppError{
		Code:    "USER_NOT_FOUND",
		Message: "user not found",
		Status:  http.StatusUnauthorized,
		Err:     ErrUserNotFound,
	}
}

// StoreUnavailable creates a 503 error for a store call that timed out or
// could not be completed.
func StoreUnavailable() *AppError {
	return &AppError{
		Code:    "STORE_UNAVAILABLE",
		Message: "user store is temporarily unavailable",
		Status:  http.StatusServiceUnavailable,
		Err:     ErrStoreUnavailable,
	}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// Internal creates a 500 error. The wrapped error is kept for logging but the
// message never leaks internals to a caller.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrRegistrationFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrUserNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
