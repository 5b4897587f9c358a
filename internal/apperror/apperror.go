// Package apperror defines the error kinds shared by the service and handler layers.
//
// ERROR TAXONOMY:
// Every failure a user can trigger maps to exactly one sentinel below.
// Services wrap the sentinel in an *AppError (so the handler has a message to
// show), and handlers decide what the user sees with errors.Is:
//
//	ErrNotFound        → 404 error page
//	ErrUnauthenticated → redirect to /login
//	ErrForbidden       → error page (not an HTTP error status)
//	ErrSelfAction      → error page (e.g. liking your own post)
//	ErrValidation      → re-render the form with the field message
//	ErrConflict        → error page, the user can retry
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSelfAction      = errors.New("self action forbidden")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: form field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
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

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller is logged in but does
// not own the entity. Handlers render it as an error page.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is returned when an action needs a logged-in user.
func Unauthenticated(action string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: fmt.Sprintf("you must be logged in to %s", action),
	}
}

// SelfActionForbidden is returned when a user acts on their own entity in a
// way only other users may (liking their own post).
func SelfActionForbidden(message string) *AppError {
	return &AppError{
		Err:     ErrSelfAction,
		Message: message,
	}
}
