package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/whosreal/internal/ai"
)

// ResponseChain is the AI pipeline entry point the doppelganger service
// invokes. *ai.Pipeline satisfies it.
type ResponseChain interface {
	FullChainResponse(ctx context.Context, persona *ai.Persona, transcript string) (string, error)
}

// transcriptWindow is how many recent messages one pipeline invocation sees.
const transcriptWindow = 30

// DoppelgangerService turns a player profile into an AI participant: it
// reads the room's recent transcript, asks the pipeline whether the persona
// would speak, and posts the styled reply through the same gate humans use.
type DoppelgangerService struct {
	rooms    *RoomService
	profiles *ProfileService
	chain    ResponseChain
	logger   *slog.Logger
}

// NewDoppelgangerService constructs a doppelganger service.
func NewDoppelgangerService(rooms *RoomService, profiles *ProfileService, chain ResponseChain, logger *slog.Logger) *DoppelgangerService {
	return &DoppelgangerService{rooms: rooms, profiles: profiles, chain: chain, logger: defaultLogger(logger)}
}

// Trigger runs one pipeline invocation for the given profile against the
// room's current transcript. It returns the posted message and true when the
// persona spoke. A decision not to speak, and a room that closed between the
// decision and the post, both yield (false, nil): the doppelganger simply
// stays quiet.
func (s *DoppelgangerService) Trigger(ctx context.Context, roomID, profileID string) (message Message, posted bool, err error) {
	logger := serviceLogger(ctx, s.logger, "DoppelgangerService", "Trigger",
		"room_id", roomID,
		"profile_id", profileID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "doppelganger invocation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("posted", posted).InfoContext(ctx, "doppelganger invoked")
	}()

	profile, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		return
	}

	persona, err := ai.NewPersona(profile.FirstName, profile.LastInitial, profile.CodeName, profile.Color, profile.StyleSamples)
	if err != nil {
		if errors.Is(err, ai.ErrInsufficientStyleSamples) {
			vErr := &ValidationError{}
			vErr.add("style_samples", "at least 3 writing samples are required")
			err = vErr
		}
		return
	}

	history, err := s.rooms.Messages(ctx, roomID, transcriptWindow, nil)
	if err != nil {
		return
	}

	reply, err := s.chain.FullChainResponse(ctx, persona, renderTranscript(history))
	if err != nil {
		return
	}
	if reply == "" {
		return
	}

	// The doppelganger is a regular participant: it joins under its code
	// name and posts through the same commit-time gate as humans.
	participantID := "doppelganger:" + profile.ID
	if _, err = s.rooms.Join(ctx, JoinParams{
		RoomID:        roomID,
		ParticipantID: participantID,
		DisplayName:   profile.CodeName,
	}); err != nil {
		return
	}

	message, err = s.rooms.PostMessage(ctx, PostParams{
		RoomID:        roomID,
		ParticipantID: participantID,
		Text:          reply,
	})
	if err != nil {
		var bErr *BlockedError
		if errors.As(err, &bErr) {
			logger.InfoContext(ctx, "doppelganger reply blocked", "reason", bErr.Reason)
			message, err = Message{}, nil
			return
		}
		return
	}

	posted = true
	return
}

// renderTranscript flattens message history into the "Author: text" lines
// the pipeline prompts expect.
func renderTranscript(history []Message) string {
	var b strings.Builder
	for i, m := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", m.Author, m.Text)
	}
	return b.String()
}
