package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Callers wrap these with fmt.Errorf("%w: ...") and the HTTP
// layer maps them to status codes with errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrStorage         = errors.New("storage error")
)

func wrap(kind error, msg string) error {
	return fmt.Errorf("%w: %s", kind, msg)
}

// Errorf wraps kind with a formatted message.
func Errorf(kind error, format string, args ...any) error {
	return wrap(kind, fmt.Sprintf(format, args...))
}

// StorageError wraps a driver failure so it surfaces as ErrStorage while
// keeping the cause for logs.
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
