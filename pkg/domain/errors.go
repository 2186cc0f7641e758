// Package domain holds the error taxonomy shared by every back-office component.
//
// Components wrap one of these kinds with context:
//
//	return fmt.Errorf("account %s: %w", number, domain.ErrNotFound)
//
// and callers classify failures with errors.Is.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when input is malformed or missing.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned when an identity, account or request does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned when a write collides with existing state, e.g. a second
	// checking account, a duplicate username or an already resolved request.
	ErrConflict = errors.New("conflict")
	// ErrForbidden is returned when the authorization policy denies the actor.
	ErrForbidden = errors.New("forbidden")
	// ErrLocked is returned when a login is blocked by the lockout window.
	ErrLocked = errors.New("locked")
	// ErrUnauthorized is returned when credentials are wrong.
	ErrUnauthorized = errors.New("unauthorized")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// Forbiddenf wraps ErrForbidden with a formatted message.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrForbidden)
}

// Kind returns the taxonomy sentinel err belongs to, or nil for infrastructure failures.
func Kind(err error) error {
	for _, k := range []error{
		ErrValidation,
		ErrNotFound,
		ErrConflict,
		ErrForbidden,
		ErrLocked,
		ErrUnauthorized,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
