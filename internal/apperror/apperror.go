package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrExpired       = errors.New("expired")
	ErrAlreadyActive = errors.New("already active")
	ErrDispatch      = errors.New("dispatch failure")
	ErrForbidden     = errors.New("forbidden")
)

type AppError struct {
	Err     error  // sentinel category, matched with errors.Is
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with key %s", resource, key),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Expired marks a one-time code past its validity window.
// HTTP handlers map this to 400 with the message as-is.
func Expired(message string) *AppError {
	return &AppError{
		Err:     ErrExpired,
		Message: message,
	}
}

// AlreadyActive marks a sign-up attempt on an account that already
// completed sign-up.
func AlreadyActive(message string) *AppError {
	return &AppError{
		Err:     ErrAlreadyActive,
		Message: message,
	}
}

// DispatchFailed wraps an email send error. Send failures are surfaced to
// the caller, never swallowed.
func DispatchFailed(err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrDispatch, err),
		Message: "Failed to send the login code email.",
	}
}

// Forbidden returns an AppError indicating the caller lacks valid credentials.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}
