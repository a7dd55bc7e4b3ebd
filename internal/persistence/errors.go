package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrConstraintViolation is returned when a record fails a schema-level
	// invariant, such as a non-positive required participant count.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrRoomClosed is returned by AppendMessage when the room's deadline had
	// already passed at commit time.
	ErrRoomClosed = errors.New("persistence: room closed")
)
