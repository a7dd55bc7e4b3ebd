package broadcast

import "time"

// Event types carried on the wire. Chat events mirror durably stored
// messages; everything else is live-only and never persisted.
const (
	EventTypeChat   = "chat"
	EventTypeSystem = "system"
	EventTypeTyping = "typing"
	EventTypeVote   = "vote"
	EventTypeState  = "state"
)

// ChatEvent announces an accepted chat message.
type ChatEvent struct {
	Type   string    `json:"type"`
	RoomID string    `json:"room_id"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// NewChatEvent builds a ChatEvent with its type set.
func NewChatEvent(roomID, author, text string, sentAt time.Time) ChatEvent {
	return ChatEvent{Type: EventTypeChat, RoomID: roomID, Author: author, Text: text, SentAt: sentAt}
}

// SystemEvent carries room announcements such as joins, leaves and clears.
type SystemEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Text   string `json:"text"`
}

// NewSystemEvent builds a SystemEvent with its type set.
func NewSystemEvent(roomID, text string) SystemEvent {
	return SystemEvent{Type: EventTypeSystem, RoomID: roomID, Text: text}
}

// TypingEvent relays a typing indicator. Live-only.
type TypingEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Author string `json:"author"`
	Active bool   `json:"active"`
}

// NewTypingEvent builds a TypingEvent with its type set.
func NewTypingEvent(roomID, author string, active bool) TypingEvent {
	return TypingEvent{Type: EventTypeTyping, RoomID: roomID, Author: author, Active: active}
}

// VoteEvent relays a player's suspicion vote. Live-only; tallying is the
// presentation layer's concern.
type VoteEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Voter  string `json:"voter"`
	Target string `json:"target"`
}

// NewVoteEvent builds a VoteEvent with its type set.
func NewVoteEvent(roomID, voter, target string) VoteEvent {
	return VoteEvent{Type: EventTypeVote, RoomID: roomID, Voter: voter, Target: target}
}

// StateEvent announces the room's lifecycle state after a change.
type StateEvent struct {
	Type             string `json:"type"`
	RoomID           string `json:"room_id"`
	State            string `json:"state"`
	Have             int    `json:"have"`
	Want             int    `json:"want"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// NewStateEvent builds a StateEvent with its type set.
func NewStateEvent(roomID, state string, have, want, remainingSeconds int) StateEvent {
	return StateEvent{
		Type:             EventTypeState,
		RoomID:           roomID,
		State:            state,
		Have:             have,
		Want:             want,
		RemainingSeconds: remainingSeconds,
	}
}
