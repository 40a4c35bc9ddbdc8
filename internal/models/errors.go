package models

import (
	"errors"
	"fmt"
)

// ErrGuardRejected is matched by every guard violation. Guarded operations
// leave state untouched when they return it.
var ErrGuardRejected = errors.New("guard rejected")

// GuardError reports which operation refused to mutate state and why.
type GuardError struct {
	Op     string
	Reason string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, ErrGuardRejected, e.Reason)
}

// Is lets errors.Is(err, ErrGuardRejected) match.
func (e *GuardError) Is(target error) bool {
	return target == ErrGuardRejected
}

// Reject builds a GuardError.
func Reject(op, reason string) error {
	return &GuardError{Op: op, Reason: reason}
}

// IsGuardRejected reports whether err is a guard violation.
func IsGuardRejected(err error) bool {
	return errors.Is(err, ErrGuardRejected)
}
