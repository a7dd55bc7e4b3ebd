package persistence

import (
	"context"
	"time"
)

// RoomRegistry stores the room catalog and owns the closing deadline.
type RoomRegistry interface {
	// EnsureRoom creates the room if absent and returns the stored row. An
	// existing room keeps its original required count and creation time.
	EnsureRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	// ArmDeadline sets the room's deadline to closeAt if and only if no
	// deadline is set and the membership count has reached the required
	// count. It reports whether this call armed the deadline. The check and
	// write are a single atomic step, so concurrent callers produce exactly
	// one winner.
	ArmDeadline(ctx context.Context, roomID string, closeAt time.Time) (bool, error)
	// ClearRoom deletes all messages of the room and unsets its deadline in
	// one atomic operation. Memberships are untouched.
	ClearRoom(ctx context.Context, roomID string) error
}

// MembershipTracker stores durable join records.
type MembershipTracker interface {
	// UpsertMembership inserts the membership or, if the (room, participant)
	// pair already exists, replaces only the display name. The stored row is
	// returned, so callers observe the preserved JoinedAt on re-joins.
	UpsertMembership(ctx context.Context, m Membership) (Membership, error)
	ListMemberships(ctx context.Context, roomID string) ([]Membership, error)
	CountMemberships(ctx context.Context, roomID string) (int, error)
}

// MessageLog stores the append-only chat history.
type MessageLog interface {
	// AppendMessage commits the message unless the owning room's deadline has
	// passed at commit time, in which case ErrRoomClosed is returned and
	// nothing is written.
	AppendMessage(ctx context.Context, m Message) (Message, error)
	// ListMessages fetches up to limit messages, newest first, optionally
	// restricted to messages strictly before the cursor. The page itself is
	// returned oldest-first.
	ListMessages(ctx context.Context, roomID string, limit int, before *time.Time) ([]Message, error)
}
