// Package apperror defines the error taxonomy shared by every layer.
//
// Layers below HTTP return these errors; internal/handler is the only place
// that knows which status code each one maps to.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found or unauthorized")
	ErrValidation = errors.New("validation error")
	ErrMalformed  = errors.New("malformed input")
	ErrStore      = errors.New("store error")
	ErrForbidden  = errors.New("forbidden")
)

type AppError struct {
	Err     error  // sentinel, one of the Err* values above
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying driver or transport error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause, so errors.Is matches
// ErrStore as well as, say, context.Canceled on the same value.
func (e *AppError) Unwrap() []error {
	errs := []error{e.Err}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NotFoundOrUnauthorized reports that no row matched an id+owner pair.
// The two causes are deliberately merged into one message.
func NotFoundOrUnauthorized(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found or unauthorized", resource),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Malformed reports input that could not be coerced to the expected type,
// such as a non-numeric id or an undecodable JSON body.
func Malformed(field, message string) *AppError {
	return &AppError{
		Err:     ErrMalformed,
		Message: message,
		Field:   field,
	}
}

// StoreFailed wraps a failure reported by the record store. The message is
// surfaced to callers verbatim.
func StoreFailed(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrStore,
		Message: message,
		Cause:   cause,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}
