package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Ledger errors
	ErrLevelLocked  = fmt.Errorf("%w: level is locked", ErrInvalidArgument)
	ErrScoreRange   = fmt.Errorf("%w: score must be within 0-100", ErrInvalidArgument)
	ErrNegativeTime = fmt.Errorf("%w: practice time must not be negative", ErrInvalidArgument)

	// Session errors
	ErrSessionNotActive = errors.New("practice session is not active")

	// Storage errors
	ErrStoreUnavailable = errors.New("progress store is unavailable")
)

// NotFoundError reports a reference to an id that does not exist.
// Curriculum content is trusted, so for levels this means a content bug.
type NotFoundError struct {
	Kind string // "level", "session", "chapter", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Unwrap lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
