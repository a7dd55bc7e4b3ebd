package persistence

import "time"

// Room represents a chat room with a participant-count gate and an optional
// closing deadline. CloseAt is nil until the countdown has been armed.
type Room struct {
	ID            string
	RequiredCount int
	CreatedAt     time.Time
	CloseAt       *time.Time
}

// Membership records that a participant joined a room. There is at most one
// row per (RoomID, ParticipantID); re-joining replaces the display name but
// keeps the original JoinedAt.
type Membership struct {
	RoomID        string
	ParticipantID string
	DisplayName   string
	JoinedAt      time.Time
}

// Message is a single chat line. Messages are appended in SentAt order and
// never mutated.
type Message struct {
	ID     int64
	RoomID string
	Author string
	Text   string
	SentAt time.Time
}
