package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when a moderation credential does not match.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// BlockedError reports that chat input was rejected by the room lifecycle.
// It represents a normal, named state, not a fault: the presentation layer
// shows Reason as a notice, never an error page.
type BlockedError struct {
	State  RoomState
	Reason string
}

// Error implements the error interface.
func (b *BlockedError) Error() string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("chat blocked: %s", b.Reason)
}
