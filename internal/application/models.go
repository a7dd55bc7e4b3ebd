// Package application contains the room lifecycle controller and the
// supporting services that sit between the HTTP layer and persistence.
package application

import "time"

// RoomState is the lifecycle state of a room, derived lazily from the wall
// clock on every read. There is no background timer driving transitions.
type RoomState string

const (
	// RoomStateForming means the room is waiting for quorum. Joins are
	// accepted, chat is blocked.
	RoomStateForming RoomState = "forming"
	// RoomStateCountingDown means quorum was reached and the deadline has
	// not passed. Chat is open.
	RoomStateCountingDown RoomState = "counting_down"
	// RoomStateClosed means the deadline has passed. The room is read-only;
	// joins are still permitted for observers but never re-open it.
	RoomStateClosed RoomState = "closed"
)

// Room is a named chat channel with a participant-count gate and a
// time-bounded open window.
type Room struct {
	ID            string
	RequiredCount int
	CreatedAt     time.Time
	CloseAt       *time.Time
}

// Membership is a durable join record. At most one exists per
// (room, participant); re-joining refreshes the display name only.
type Membership struct {
	RoomID        string
	ParticipantID string
	DisplayName   string
	JoinedAt      time.Time
}

// Message is one accepted chat line. Messages are append-only and never
// mutated.
type Message struct {
	ID     int64
	RoomID string
	Author string
	Text   string
	SentAt time.Time
}

// Evaluation is the room lifecycle controller's answer to "does this room
// accept chat right now". Reason is set whenever chat is blocked.
type Evaluation struct {
	State            RoomState
	Have             int
	Want             int
	CloseAt          *time.Time
	RemainingSeconds int
	Reason           string
}

// Blocked reports whether chat input is currently rejected.
func (e Evaluation) Blocked() bool {
	return e.State != RoomStateCountingDown
}

// JoinParams are the inputs to RoomService.Join.
type JoinParams struct {
	RoomID        string
	ParticipantID string
	DisplayName   string
	// RequiredCount applies only when the join implicitly creates the room;
	// zero means the service default.
	RequiredCount int
}

// JoinResult reports the outcome of a join.
type JoinResult struct {
	Room       Room
	Membership Membership
	Evaluation Evaluation
	// Armed is true when this join was the one that started the countdown.
	Armed bool
}

// PostParams are the inputs to RoomService.PostMessage.
type PostParams struct {
	RoomID        string
	ParticipantID string
	Text          string
}

// ClearParams are the inputs to RoomService.Clear.
type ClearParams struct {
	RoomID string
	Code   string
}

// RoomSummary is a lobby-screen view of one room.
type RoomSummary struct {
	ID            string
	State         RoomState
	MemberCount   int
	RequiredCount int
	CloseAt       *time.Time
}

// Profile is a player's intake record: their real identity, the anonymous
// identity assigned for the game, and the writing samples collected for the
// doppelganger.
type Profile struct {
	ID           string
	FirstName    string
	LastInitial  string
	CodeName     string
	Color        string
	StyleSamples []string
	CreatedAt    time.Time
}

// RegisterProfileParams are the inputs to ProfileService.Register.
type RegisterProfileParams struct {
	FirstName    string
	LastInitial  string
	StyleSamples []string
}
