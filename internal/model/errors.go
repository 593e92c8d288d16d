package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ConflictError reports a uniqueness or precondition violation with enough
// context for the caller to react (which resource, which value, which record
// already claims it).
type ConflictError struct {
	Resource   string
	Field      string
	Value      string
	ExistingID string
}

func (e *ConflictError) Error() string {
	if e.ExistingID != "" {
		return fmt.Sprintf("%s conflict on %s=%q: already held by %s", e.Resource, e.Field, e.Value, e.ExistingID)
	}
	return fmt.Sprintf("%s conflict on %s=%q", e.Resource, e.Field, e.Value)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is (or wraps) ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsInvalidArgument reports whether err is (or wraps) ErrInvalidArgument.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }
