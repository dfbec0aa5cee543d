package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain error taxonomy. Callers classify failures
// with errors.Is and map them to transport-level responses.
var (
	ErrValidation  = errors.New("validation")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrPersistence = errors.New("persistence")
)

// Validationf builds a validation error with a formatted message.
func Validationf(format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, a...)...)
}

// NotFoundf builds a not-found error with a formatted message.
func NotFoundf(format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, a...)...)
}

// Conflictf builds a conflict error with a formatted message.
func Conflictf(format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConflict}, a...)...)
}

// Persistencef wraps a storage failure, keeping the original error in the
// chain for errors.Is checks.
func Persistencef(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
