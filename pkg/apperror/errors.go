package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error for sync handling and HTTP mapping
type Kind string

const (
	KindGeneric          Kind = "generic"
	KindAuthentication   Kind = "authentication"
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindTransientNetwork Kind = "transient_network"
	KindDataConflict     Kind = "data_conflict"
	KindFatalIntegrity   Kind = "fatal_integrity"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Err     error        `json:"-"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Kind: KindAuthentication, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, Kind: KindAuthentication, Message: "Forbidden"}
	ErrBadRequest         = &AppError{Code: http.StatusBadRequest, Kind: KindValidation, Message: "Bad request"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Kind: KindGeneric, Message: "Internal server error"}
	ErrInvalidSignature   = &AppError{Code: http.StatusUnauthorized, Kind: KindAuthentication, Message: "Invalid signature"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Kind: KindAuthentication, Message: "Invalid username or password"}
	ErrNotConnected       = &AppError{Code: http.StatusServiceUnavailable, Kind: KindAuthentication, Message: "QuickBooks is not connected"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    KindGeneric,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldValidationError creates a validation error for a single field
func NewFieldValidationError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindDataConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: message,
	}
}

// NewTransientError wraps a timeout, 5xx or unreadable remote response
func NewTransientError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Kind:    KindTransientNetwork,
		Message: message,
		Err:     err,
	}
}

// NewAuthenticationError wraps a rejected or missing remote credential
func NewAuthenticationError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		Kind:    KindAuthentication,
		Message: message,
		Err:     err,
	}
}

// NewRemoteValidationError wraps a 4xx rejection from the remote API
func NewRemoteValidationError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: message,
		Err:     err,
	}
}

// NewFatalIntegrityError marks a partially applied local mutation
func NewFatalIntegrityError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindFatalIntegrity,
		Message: message,
		Err:     err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindGeneric,
		Message: err.Error(),
	}
}
