package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/whosreal/internal/ai"
)

// scriptedChain stands in for the AI pipeline and records the transcript it
// was handed.
type scriptedChain struct {
	reply      string
	err        error
	transcript string
}

func (c *scriptedChain) FullChainResponse(ctx context.Context, persona *ai.Persona, transcript string) (string, error) {
	c.transcript = transcript
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func doppelgangerHarness(t *testing.T, chain *scriptedChain) (*DoppelgangerService, *serviceHarness, Profile) {
	t.Helper()

	h := newServiceHarness(t, RoomServiceOptions{Countdown: time.Hour})
	profiles := newProfileService()
	profile, err := profiles.Register(context.Background(), RegisterProfileParams{
		FirstName:    "Alex",
		LastInitial:  "K",
		StyleSamples: []string{"omw", "lol no", "k fine"},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	return NewDoppelgangerService(h.service, profiles, chain, nil), h, profile
}

func seedOpenRoom(t *testing.T, h *serviceHarness) {
	t.Helper()
	ctx := context.Background()
	for _, p := range []string{"p1", "p2"} {
		if _, err := h.service.Join(ctx, JoinParams{RoomID: "LUNCH", ParticipantID: p, DisplayName: p}); err != nil {
			t.Fatalf("join failed: %v", err)
		}
	}
	for _, text := range []string{"anyone hungry", "always"} {
		*h.current = h.current.Add(time.Second)
		if _, err := h.service.PostMessage(ctx, PostParams{RoomID: "LUNCH", ParticipantID: "p1", Text: text}); err != nil {
			t.Fatalf("PostMessage failed: %v", err)
		}
	}
}

func TestDoppelgangerService_Trigger(t *testing.T) {
	t.Run("posts a styled reply under the code name", func(t *testing.T) {
		chain := &scriptedChain{reply: "count me in lol"}
		svc, h, profile := doppelgangerHarness(t, chain)
		seedOpenRoom(t, h)

		message, posted, err := svc.Trigger(context.Background(), "LUNCH", profile.ID)
		if err != nil {
			t.Fatalf("Trigger failed: %v", err)
		}
		if !posted {
			t.Fatal("expected the reply to be posted")
		}
		if message.Author != profile.CodeName {
			t.Fatalf("expected author %q, got %q", profile.CodeName, message.Author)
		}
		if message.Text != "count me in lol" {
			t.Fatalf("unexpected text %q", message.Text)
		}
		if !strings.Contains(chain.transcript, "p1: anyone hungry") {
			t.Fatalf("transcript missing history: %q", chain.transcript)
		}
	})

	t.Run("a pass posts nothing", func(t *testing.T) {
		chain := &scriptedChain{reply: ""}
		svc, h, profile := doppelgangerHarness(t, chain)
		seedOpenRoom(t, h)

		before := len(h.store.messages["LUNCH"])
		_, posted, err := svc.Trigger(context.Background(), "LUNCH", profile.ID)
		if err != nil {
			t.Fatalf("Trigger failed: %v", err)
		}
		if posted {
			t.Fatal("a pass must not post")
		}
		if len(h.store.messages["LUNCH"]) != before {
			t.Fatal("message log grew on a pass")
		}
	})

	t.Run("a room that closed mid-invocation stays quiet", func(t *testing.T) {
		chain := &scriptedChain{reply: "too slow"}
		svc, h, profile := doppelgangerHarness(t, chain)
		seedOpenRoom(t, h)

		*h.current = h.current.Add(2 * time.Hour)

		_, posted, err := svc.Trigger(context.Background(), "LUNCH", profile.ID)
		if err != nil {
			t.Fatalf("expected the blocked post to be absorbed, got %v", err)
		}
		if posted {
			t.Fatal("posted into a closed room")
		}
	})

	t.Run("generation failures propagate", func(t *testing.T) {
		boom := errors.New("capability timeout")
		chain := &scriptedChain{err: boom}
		svc, h, profile := doppelgangerHarness(t, chain)
		seedOpenRoom(t, h)

		if _, _, err := svc.Trigger(context.Background(), "LUNCH", profile.ID); !errors.Is(err, boom) {
			t.Fatalf("expected the generator error, got %v", err)
		}
	})

	t.Run("unknown profile", func(t *testing.T) {
		chain := &scriptedChain{reply: "hi"}
		svc, h, _ := doppelgangerHarness(t, chain)
		seedOpenRoom(t, h)

		if _, _, err := svc.Trigger(context.Background(), "LUNCH", "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
