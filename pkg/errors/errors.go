package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure that callers can act on.
type ErrorCode string

const (
	CodeValidation             ErrorCode = "VALIDATION"
	CodeConflict               ErrorCode = "CONFLICT"
	CodeInsufficientStock      ErrorCode = "INSUFFICIENT_STOCK"
	CodeNotFound               ErrorCode = "NOT_FOUND"
	CodeInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"
	CodeUnauthorized           ErrorCode = "UNAUTHORIZED"
	CodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// AppError is the error type returned by application services. It carries
// an error code, an HTTP status for the transport layer, and an optional
// wrapped cause.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	HTTPStatus int       `json:"-"`
	Retryable  bool      `json:"retryable,omitempty"`
	cause      error
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// WithDetails returns a copy of the error with extra detail text.
func (e *AppError) WithDetails(format string, args ...interface{}) *AppError {
	clone := *e
	clone.Details = fmt.Sprintf(format, args...)
	return &clone
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *AppError) WithCause(err error) *AppError {
	clone := *e
	clone.cause = err
	return &clone
}

// ErrValidation indicates malformed or semantically invalid input.
func ErrValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// ErrNotFound indicates a referenced entity does not exist.
func ErrNotFound(entity string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
	}
}

// ErrNotFoundWithID indicates a referenced entity with a known ID does not exist.
func ErrNotFoundWithID(entity, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s %s not found", entity, id),
		HTTPStatus: http.StatusNotFound,
	}
}

// ErrConflict indicates an optimistic concurrency conflict. The operation
// may succeed if retried against fresh state.
func ErrConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Retryable:  true,
	}
}

// ErrInsufficientStock indicates available quantity cannot cover the request.
func ErrInsufficientStock(message string) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// ErrInvalidStateTransition indicates a lifecycle operation was attempted
// from a state that does not permit it.
func ErrInvalidStateTransition(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidStateTransition,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// ErrUnauthorized indicates missing or invalid tenant credentials.
func ErrUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// ErrInternal indicates an unexpected failure that is not the caller's fault.
func ErrInternal(message string) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// IsAppError reports whether err is (or wraps) an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts an AppError from err if present.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromError normalizes any error into an AppError, mapping unknown errors
// to CodeInternal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return ErrInternal("unexpected error").WithCause(err)
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
