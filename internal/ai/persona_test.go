package ai

import (
	"errors"
	"testing"
)

func TestNewPersona(t *testing.T) {
	t.Run("requires three style samples", func(t *testing.T) {
		_, err := NewPersona("Alex", "K", "Falcon", "Crimson", []string{"one", "two"})
		if !errors.Is(err, ErrInsufficientStyleSamples) {
			t.Fatalf("expected ErrInsufficientStyleSamples, got %v", err)
		}
	})

	t.Run("copies the sample slice", func(t *testing.T) {
		samples := []string{"one", "two", "three"}
		persona, err := NewPersona("Alex", "K", "Falcon", "Crimson", samples)
		if err != nil {
			t.Fatalf("NewPersona failed: %v", err)
		}

		samples[0] = "mutated"
		if persona.StyleSamples()[0] != "one" {
			t.Fatal("persona shares backing storage with the caller's slice")
		}
	})
}

func TestPersona_AddStyleSample(t *testing.T) {
	persona, err := NewPersona("Alex", "K", "Falcon", "Crimson", []string{"one", "two", "three"})
	if err != nil {
		t.Fatalf("NewPersona failed: %v", err)
	}

	persona.AddStyleSample("four")
	persona.AddStyleSample("")

	samples := persona.StyleSamples()
	if len(samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(samples))
	}
	if samples[3] != "four" {
		t.Fatalf("unexpected last sample %q", samples[3])
	}

	// Mutating the returned copy must not affect the persona.
	samples[0] = "mutated"
	if persona.StyleSamples()[0] != "one" {
		t.Fatal("StyleSamples returned shared backing storage")
	}
}

func TestPersona_DisplayName(t *testing.T) {
	persona, err := NewPersona("Alex", "K", "Falcon", "Crimson", []string{"one", "two", "three"})
	if err != nil {
		t.Fatalf("NewPersona failed: %v", err)
	}
	if got := persona.DisplayName(); got != "Alex K." {
		t.Fatalf("DisplayName = %q", got)
	}
}
