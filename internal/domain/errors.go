package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks errors caused by the caller's request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNarrativeUnavailable marks a failed or timed-out narrative generator call.
	ErrNarrativeUnavailable = errors.New("narrative generator unavailable")
)

// InputError reports a request field that failed validation or names an
// unknown reference data entry.
type InputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("unknown %s %q", e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *InputError) Unwrap() error { return ErrInvalidInput }
