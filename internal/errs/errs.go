// Package errs defines the error taxonomy shared by the service layer.
// Handlers map these to HTTP statuses at the boundary; services only
// wrap them with context via the *f constructors.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks an absent room/message/transaction/product/user.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks a caller lacking the required participation or role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState marks an action attempted from a state that does not permit it.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation marks malformed or mismatching input (bad code, expired code, self-dealing).
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a uniqueness race, e.g. duplicate room creation.
	ErrConflict = errors.New("conflict")
)

func wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

// Forbiddenf wraps ErrForbidden with a formatted message.
func Forbiddenf(format string, args ...interface{}) error {
	return wrap(ErrForbidden, format, args...)
}

// InvalidStatef wraps ErrInvalidState with a formatted message.
func InvalidStatef(format string, args ...interface{}) error {
	return wrap(ErrInvalidState, format, args...)
}

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return wrap(ErrValidation, format, args...)
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...interface{}) error {
	return wrap(ErrConflict, format, args...)
}
