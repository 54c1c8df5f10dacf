package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInternal           = errors.New("internal error")

	ErrValidation        = errors.New("validation failed")
	ErrDuplicateRequest  = errors.New("duplicate seller request")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrProvisioning      = errors.New("seller provisioning failed")
	ErrGateway           = errors.New("payment gateway error")
)

// Error codes returned to API clients.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeBadRequest        = "BAD_REQUEST"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
	CodeValidation        = "VALIDATION_ERROR"
	CodeDuplicateRequest  = "DUPLICATE_REQUEST"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeProvisioning      = "PROVISIONING_ERROR"
	CodeGateway           = "GATEWAY_ERROR"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents application error with HTTP status
type AppError struct {
	Status  int          `json:"-"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	Err     error        `json:"-"`
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Detail returns the message plus the wrapped cause, for admin callers.
func (e *AppError) Detail() string {
	if e.Err == nil || e.Err.Error() == e.Message {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrAlreadyExists)
}

func InternalError(err error) *AppError {
	if err == nil {
		err = ErrInternal
	}
	return NewAppError(http.StatusInternalServerError, CodeInternal, "internal server error", err)
}

// Validation reports malformed input. No write has happened.
func Validation(message string, fields ...FieldError) *AppError {
	e := NewAppError(http.StatusBadRequest, CodeValidation, message, ErrValidation)
	e.Details = fields
	return e
}

// DuplicateRequest reports that the user already has an active seller request.
func DuplicateRequest(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeDuplicateRequest, message, ErrDuplicateRequest)
}

// InvalidTransition reports an illegal state change.
func InvalidTransition(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidTransition, message, ErrInvalidTransition)
}

// Provisioning wraps the cause of a failed approval. The transaction has
// already been rolled back when this is returned.
func Provisioning(cause error) *AppError {
	var err error = ErrProvisioning
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrProvisioning, cause)
	}
	return NewAppError(http.StatusInternalServerError, CodeProvisioning, "failed to provision seller profile", err)
}

// Gateway wraps a payment gateway failure.
func Gateway(cause error) *AppError {
	var err error = ErrGateway
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrGateway, cause)
	}
	return NewAppError(http.StatusBadGateway, CodeGateway, "payment gateway unavailable", err)
}

// NewError creates a new error with a custom message wrapping an existing error
func NewError(message string, err error) error {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    CodeBadRequest,
		Message: message,
		Err:     err,
	}
}

// As extracts an *AppError from err.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
