package errors

import (
	"errors"
	"fmt"
	"net/http"

	"townhall/internal/core/domain"
)

// ErrorCode represents application error codes
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeRateLimit    ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnavailable  ErrorCode = "SERVICE_UNAVAILABLE"
)

// AppError represents an application error with code and context
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// WrapError wraps an existing error with application error
func WrapError(err error, code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Cause:      err,
	}
}

func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func NewConflictError(message string) *AppError {
	return NewAppError(ErrCodeConflict, message, http.StatusConflict)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

// FromDomainError maps the town service's error taxonomy onto transport
// errors. Every rejected mutation surfaces here with a stable code and a
// human-readable reason; internal details never leak.
func FromDomainError(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrUnknownTown):
		return NewAppError(ErrCodeNotFound, "no such town", http.StatusNotFound)
	case errors.Is(err, domain.ErrUnknownPlayer):
		return NewAppError(ErrCodeNotFound, "player not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrUnknownSession):
		return NewAppError(ErrCodeUnauthorized, "invalid session token", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrNotAuthorized):
		return NewAppError(ErrCodeUnauthorized, "invalid password or insufficient permission", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrUnknownPlaceableType):
		return NewAppError(ErrCodeInvalidInput, domain.ErrUnknownPlaceableType.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrCellOccupied):
		return NewAppError(ErrCodeConflict, domain.ErrCellOccupied.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrNothingToDelete):
		return NewAppError(ErrCodeConflict, domain.ErrNothingToDelete.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidInput):
		return NewAppError(ErrCodeInvalidInput, "invalid input", http.StatusBadRequest)
	default:
		return WrapError(err, ErrCodeInternal, "internal server error", http.StatusInternalServerError)
	}
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
