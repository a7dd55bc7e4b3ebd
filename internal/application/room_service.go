package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/example/whosreal/internal/broadcast"
	"github.com/example/whosreal/internal/persistence"
)

// Service defaults, overridable through RoomServiceOptions.
const (
	DefaultCountdown     = 60 * time.Second
	DefaultRequiredCount = 2
	DefaultPageSize      = 100
)

// Broadcaster fans an event out to the live connections of a room. Delivery
// is best-effort; the durable message log remains the source of truth.
type Broadcaster interface {
	Broadcast(roomID string, event any)
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(string, any) {}

// RoomServiceOptions tune a room service. Zero values fall back to the
// package defaults.
type RoomServiceOptions struct {
	Countdown            time.Duration
	DefaultRequiredCount int
	PageSize             int
	// ClearCodeHash is the argon2id hash of the moderation clear code.
	// Empty means clearing requires no credential.
	ClearCodeHash string
	Broadcaster   Broadcaster
	Logger        *slog.Logger
}

// RoomService is the single authority for whether a room accepts chat input
// right now. All state transitions are derived from the injected clock on
// access; nothing runs in the background.
type RoomService struct {
	rooms    persistence.RoomRegistry
	members  persistence.MembershipTracker
	messages persistence.MessageLog

	broadcaster     Broadcaster
	clearCodeHash   string
	countdown       time.Duration
	defaultRequired int
	pageSize        int
	now             func() time.Time
	logger          *slog.Logger
}

// NewRoomService constructs a room service over the given repositories.
func NewRoomService(
	rooms persistence.RoomRegistry,
	members persistence.MembershipTracker,
	messages persistence.MessageLog,
	now func() time.Time,
	opts RoomServiceOptions,
) *RoomService {
	if now == nil {
		now = time.Now
	}
	if opts.Countdown <= 0 {
		opts.Countdown = DefaultCountdown
	}
	if opts.DefaultRequiredCount < 2 {
		opts.DefaultRequiredCount = DefaultRequiredCount
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Broadcaster == nil {
		opts.Broadcaster = noopBroadcaster{}
	}
	return &RoomService{
		rooms:           rooms,
		members:         members,
		messages:        messages,
		broadcaster:     opts.Broadcaster,
		clearCodeHash:   opts.ClearCodeHash,
		countdown:       opts.Countdown,
		defaultRequired: opts.DefaultRequiredCount,
		pageSize:        opts.PageSize,
		now:             now,
		logger:          defaultLogger(opts.Logger),
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// EnsureRoom idempotently creates a room. An existing room keeps its
// original required count; requiredCount zero means the service default.
func (s *RoomService) EnsureRoom(ctx context.Context, roomID string, requiredCount int) (room Room, err error) {
	logger := s.loggerWith(ctx, "EnsureRoom", "room_id", roomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to ensure room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).DebugContext(ctx, "room ensured")
	}()

	normalized, vErr := normalizeRoomID(roomID)
	if requiredCount == 0 {
		requiredCount = s.defaultRequired
	}
	if requiredCount < 2 {
		vErr.add("required_count", "required count must be at least 2")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	stored, err := s.rooms.EnsureRoom(ctx, persistence.Room{
		ID:            normalized,
		RequiredCount: requiredCount,
		CreatedAt:     s.now(),
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	room = toRoom(stored)
	return
}

// Join idempotently records a membership. A repeat join refreshes the
// display name but never the join timestamp; a display name already held by
// another participant gets a numeric suffix. Reaching quorum arms the
// countdown deadline exactly once; joins to a closed room are still recorded
// but never re-open it.
func (s *RoomService) Join(ctx context.Context, params JoinParams) (result JoinResult, err error) {
	logger := s.loggerWith(ctx, "Join",
		"room_id", params.RoomID,
		"participant_id", params.ParticipantID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to join room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"display_name", result.Membership.DisplayName,
			"state", string(result.Evaluation.State),
			"armed", result.Armed,
		).InfoContext(ctx, "participant joined")
	}()

	displayName := strings.TrimSpace(params.DisplayName)
	vErr := &ValidationError{}
	if params.ParticipantID == "" {
		vErr.add("participant_id", "participant id is required")
	}
	if displayName == "" {
		vErr.add("display_name", "display name is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	room, err := s.EnsureRoom(ctx, params.RoomID, params.RequiredCount)
	if err != nil {
		return
	}

	existing, err := s.members.ListMemberships(ctx, room.ID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	displayName = disambiguateDisplayName(displayName, params.ParticipantID, existing)

	membership, err := s.members.UpsertMembership(ctx, persistence.Membership{
		RoomID:        room.ID,
		ParticipantID: params.ParticipantID,
		DisplayName:   displayName,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	var armed bool
	if room.CloseAt == nil {
		armed, err = s.rooms.ArmDeadline(ctx, room.ID, s.now().Add(s.countdown))
		if err != nil {
			err = mapRepoError(err)
			return
		}
	}

	evaluation, err := s.Evaluate(ctx, room.ID)
	if err != nil {
		return
	}

	result = JoinResult{
		Room:       Room{ID: room.ID, RequiredCount: room.RequiredCount, CreatedAt: room.CreatedAt, CloseAt: evaluation.CloseAt},
		Membership: toMembership(membership),
		Evaluation: evaluation,
		Armed:      armed,
	}

	s.broadcaster.Broadcast(room.ID, broadcast.NewSystemEvent(room.ID, fmt.Sprintf("%s joined", membership.DisplayName)))
	s.broadcastState(room.ID, evaluation)
	return
}

// Evaluate derives the room's lifecycle state from the wall clock. It is a
// pure read, safe to call on every interaction, and never consults a cached
// flag for the Closed transition.
func (s *RoomService) Evaluate(ctx context.Context, roomID string) (Evaluation, error) {
	normalized, vErr := normalizeRoomID(roomID)
	if vErr.HasErrors() {
		return Evaluation{}, vErr
	}

	room, err := s.rooms.GetRoom(ctx, normalized)
	if err != nil {
		return Evaluation{}, mapRepoError(err)
	}
	have, err := s.members.CountMemberships(ctx, normalized)
	if err != nil {
		return Evaluation{}, mapRepoError(err)
	}

	return s.evaluation(room, have), nil
}

// PostMessage validates and appends a chat message. The lifecycle is
// re-checked at commit time inside the store transaction, so a deadline that
// passes between render and submit surfaces as a distinct blocked notice.
func (s *RoomService) PostMessage(ctx context.Context, params PostParams) (message Message, err error) {
	logger := s.loggerWith(ctx, "PostMessage",
		"room_id", params.RoomID,
		"participant_id", params.ParticipantID,
	)
	defer func() {
		if err != nil {
			var bErr *BlockedError
			if errors.As(err, &bErr) {
				logger.InfoContext(ctx, "message blocked", "error_kind", ErrorKind(err), "reason", bErr.Reason)
				return
			}
			logger.ErrorContext(ctx, "failed to post message", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("author", message.Author).InfoContext(ctx, "message posted")
	}()

	text := strings.TrimSpace(params.Text)
	vErr := &ValidationError{}
	if params.ParticipantID == "" {
		vErr.add("participant_id", "participant id is required")
	}
	if text == "" {
		vErr.add("text", "text is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	normalized, vErr := normalizeRoomID(params.RoomID)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	evaluation, err := s.Evaluate(ctx, normalized)
	if err != nil {
		return
	}
	if evaluation.Blocked() {
		err = &BlockedError{State: evaluation.State, Reason: evaluation.Reason}
		return
	}

	author, err := s.resolveAuthor(ctx, normalized, params.ParticipantID)
	if err != nil {
		return
	}

	stored, err := s.messages.AppendMessage(ctx, persistence.Message{
		RoomID: normalized,
		Author: author,
		Text:   text,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrRoomClosed) {
			err = &BlockedError{State: RoomStateClosed, Reason: "message not sent, chat just closed"}
			return
		}
		err = mapRepoError(err)
		return
	}

	message = toMessage(stored)
	s.broadcaster.Broadcast(normalized, broadcast.NewChatEvent(normalized, message.Author, message.Text, message.SentAt))
	return
}

// Messages returns a page of the room's history, oldest-first. A nil before
// cursor means the newest page; a non-positive or oversized limit falls back
// to the configured page size.
func (s *RoomService) Messages(ctx context.Context, roomID string, limit int, before *time.Time) ([]Message, error) {
	normalized, vErr := normalizeRoomID(roomID)
	if vErr.HasErrors() {
		return nil, vErr
	}
	if _, err := s.rooms.GetRoom(ctx, normalized); err != nil {
		return nil, mapRepoError(err)
	}

	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}

	stored, err := s.messages.ListMessages(ctx, normalized, limit, before)
	if err != nil {
		return nil, mapRepoError(err)
	}

	out := make([]Message, len(stored))
	for i, m := range stored {
		out[i] = toMessage(m)
	}
	return out, nil
}

// ListRooms returns lobby summaries for all rooms, ordered by id.
func (s *RoomService) ListRooms(ctx context.Context) ([]RoomSummary, error) {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		have, err := s.members.CountMemberships(ctx, room.ID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		evaluation := s.evaluation(room, have)
		summaries = append(summaries, RoomSummary{
			ID:            room.ID,
			State:         evaluation.State,
			MemberCount:   have,
			RequiredCount: room.RequiredCount,
			CloseAt:       evaluation.CloseAt,
		})
	}
	return summaries, nil
}

// Clear is the moderation reset: it wipes the room's messages and deadline
// but keeps memberships. When a clear code hash is configured the presented
// code must match. If quorum still holds the countdown re-arms immediately
// with a fresh deadline, otherwise the room returns to Forming.
func (s *RoomService) Clear(ctx context.Context, params ClearParams) (evaluation Evaluation, err error) {
	logger := s.loggerWith(ctx, "Clear", "room_id", params.RoomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to clear room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("state", string(evaluation.State)).InfoContext(ctx, "room cleared")
	}()

	if s.clearCodeHash != "" {
		if verifyErr := VerifyClearCode(s.clearCodeHash, params.Code); verifyErr != nil {
			err = ErrUnauthorized
			return
		}
	}

	normalized, vErr := normalizeRoomID(params.RoomID)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.rooms.ClearRoom(ctx, normalized); err != nil {
		err = mapRepoError(err)
		return
	}

	// Memberships survive a clear, so quorum may still hold; the same
	// guarded arm step used at join time restarts the countdown when it
	// does.
	if _, err = s.rooms.ArmDeadline(ctx, normalized, s.now().Add(s.countdown)); err != nil {
		err = mapRepoError(err)
		return
	}

	evaluation, err = s.Evaluate(ctx, normalized)
	if err != nil {
		return
	}

	s.broadcaster.Broadcast(normalized, broadcast.NewSystemEvent(normalized, "chat cleared"))
	s.broadcastState(normalized, evaluation)
	return
}

// DisplayNameFor resolves a participant's current display name in a room.
func (s *RoomService) DisplayNameFor(ctx context.Context, roomID, participantID string) (string, error) {
	normalized, vErr := normalizeRoomID(roomID)
	if vErr.HasErrors() {
		return "", vErr
	}
	return s.resolveAuthor(ctx, normalized, participantID)
}

func (s *RoomService) resolveAuthor(ctx context.Context, roomID, participantID string) (string, error) {
	memberships, err := s.members.ListMemberships(ctx, roomID)
	if err != nil {
		return "", mapRepoError(err)
	}
	for _, m := range memberships {
		if m.ParticipantID == participantID {
			return m.DisplayName, nil
		}
	}
	return "", ErrNotFound
}

func (s *RoomService) evaluation(room persistence.Room, have int) Evaluation {
	want := room.RequiredCount

	if room.CloseAt == nil {
		return Evaluation{
			State:  RoomStateForming,
			Have:   have,
			Want:   want,
			Reason: fmt.Sprintf("waiting for players, have %d of %d", have, want),
		}
	}

	closeAt := *room.CloseAt
	now := s.now()
	if now.Before(closeAt) {
		remaining := int(math.Ceil(closeAt.Sub(now).Seconds()))
		return Evaluation{
			State:            RoomStateCountingDown,
			Have:             have,
			Want:             want,
			CloseAt:          &closeAt,
			RemainingSeconds: remaining,
		}
	}

	return Evaluation{
		State:   RoomStateClosed,
		Have:    have,
		Want:    want,
		CloseAt: &closeAt,
		Reason:  "chat is closed",
	}
}

func (s *RoomService) broadcastState(roomID string, evaluation Evaluation) {
	s.broadcaster.Broadcast(roomID, broadcast.NewStateEvent(
		roomID,
		string(evaluation.State),
		evaluation.Have,
		evaluation.Want,
		evaluation.RemainingSeconds,
	))
}

// disambiguateDisplayName suffixes a counter when another participant
// already holds the requested name. The participant's own previous name
// never collides with itself.
func disambiguateDisplayName(requested, participantID string, memberships []persistence.Membership) string {
	taken := make(map[string]struct{}, len(memberships))
	for _, m := range memberships {
		if m.ParticipantID == participantID {
			continue
		}
		taken[m.DisplayName] = struct{}{}
	}

	candidate := requested
	for suffix := 2; ; suffix++ {
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		candidate = requested + strconv.Itoa(suffix)
	}
}

func normalizeRoomID(roomID string) (string, *ValidationError) {
	vErr := &ValidationError{}
	normalized := strings.ToUpper(strings.TrimSpace(roomID))
	if normalized == "" {
		vErr.add("room_id", "room id is required")
	}
	return normalized, vErr
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("input", "input rejected by storage constraints")
		return vErr
	}
	return err
}

func toRoom(room persistence.Room) Room {
	return Room{ID: room.ID, RequiredCount: room.RequiredCount, CreatedAt: room.CreatedAt, CloseAt: room.CloseAt}
}

func toMembership(m persistence.Membership) Membership {
	return Membership{RoomID: m.RoomID, ParticipantID: m.ParticipantID, DisplayName: m.DisplayName, JoinedAt: m.JoinedAt}
}

func toMessage(m persistence.Message) Message {
	return Message{ID: m.ID, RoomID: m.RoomID, Author: m.Author, Text: m.Text, SentAt: m.SentAt}
}
