package models

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownStatus = errors.New("unknown status")
	ErrSameStatus    = errors.New("status unchanged")
	ErrReopenDenied  = errors.New("reopening a closed ticket requires elevated role")
)

// ValidateTransition accepts any known target except the current status.
// Leaving selesai or batal is a reopen and needs canReopen.
func ValidateTransition(from, to Status, canReopen bool) error {
	target, ok := CanonicalStatus(string(to))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	current, _ := CanonicalStatus(string(from))
	if current == target {
		return fmt.Errorf("%w: already %q", ErrSameStatus, target)
	}
	if current.IsTerminal() && !canReopen {
		return fmt.Errorf("%w: %q -> %q", ErrReopenDenied, current, target)
	}
	return nil
}
