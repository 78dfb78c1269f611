// Package apperror defines the error kinds shared by every layer.
//
// Services and repositories return *AppError values wrapping one of the
// sentinel kinds below. Handlers never inspect messages; they switch on the
// kind with errors.Is and map it to a status code (see handler/response.go).
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStorage      = errors.New("storage failure")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying driver error
}

// Error returns the message, followed by the cause when one is attached.
// Handlers use Message directly so causes never reach clients.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause, so errors.Is matches the
// sentinel and errors.As can still reach a driver error.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists for %s", resource, key),
	}
}

// Unauthorized reports a missing or unusable caller identity.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// StorageFailure wraps a persistence error raised while performing op.
func StorageFailure(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: op + " failed",
		Cause:   cause,
	}
}

// Is reports whether err is an *AppError of the given kind.
func Is(err error, kind error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && errors.Is(appErr.Err, kind)
}
