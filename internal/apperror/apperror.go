package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPendingAuth      = errors.New("missing pending auth")
	ErrStorage          = errors.New("storage error")
)

type AppError struct {
	Err     error  // sentinel category
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateUsername is the sole user-facing conflict in the system. It is
// produced only from the storage layer's unique-constraint violation, never
// from an application-level existence check, so there is no race window
// between "is it taken?" and "take it".
func DuplicateUsername(username string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("username %q is already taken", username),
		Field:   "username",
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

// NotAuthenticated marks an operation that requires a logged-in viewer.
// Handlers map this to a redirect to /login.
func NotAuthenticated(operation string) *AppError {
	return &AppError{
		Err:     ErrNotAuthenticated,
		Message: fmt.Sprintf("%s requires a logged-in user", operation),
	}
}

// MissingPendingAuth marks a username claim attempted without a verified
// external identity waiting in the session. Handlers redirect to /error.
func MissingPendingAuth() *AppError {
	return &AppError{
		Err:     ErrPendingAuth,
		Message: "no pending external identity to claim a username for",
	}
}

// Storage wraps an underlying database failure. Business logic must let these
// bubble untouched; the handler layer turns them into a generic 500 so driver
// details never leak to the client.
func Storage(op string, err error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: fmt.Sprintf("storage failure during %s: %v", op, err),
	}
}
