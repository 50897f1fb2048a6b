package models

import (
	"errors"
	"fmt"
)

// Error codes used across the application.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeValidation      = "VALIDATION_ERROR"
	CodeTransport       = "TRANSPORT_ERROR"
	CodeAuth            = "AUTH_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternal        = "INTERNAL_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewUnauthenticatedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewTransportError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeTransport,
		Message: message,
		Err:     err,
	}
}

func NewAuthError(message string) *AppError {
	return &AppError{
		Code:    CodeAuth,
		Message: message,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal error",
		Err:     err,
	}
}

// HasCode reports whether err (or anything it wraps) is an AppError carrying
// the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
