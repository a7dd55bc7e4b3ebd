package application

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

func newProfileService() *ProfileService {
	counter := 0
	idGenerator := func() string {
		counter++
		return "profile-" + strconv.Itoa(counter)
	}
	now := func() time.Time { return time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC) }
	return NewProfileService(idGenerator, now, nil)
}

func TestPool_Next(t *testing.T) {
	pool := NewPool([]string{"a", "b", "c"})

	got := []string{pool.Next(), pool.Next(), pool.Next(), pool.Next(), pool.Next()}
	want := []string{"a", "b", "c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("draw %d = %q, want %q", i, got[i], want[i])
		}
	}

	if NewPool(nil).Next() != "" {
		t.Fatal("empty pool must return the empty string")
	}
}

func TestProfileService_Register(t *testing.T) {
	samples := []string{"omw", "lol no", "k fine"}

	t.Run("assigns pooled identities in order", func(t *testing.T) {
		svc := newProfileService()
		ctx := context.Background()

		first, err := svc.Register(ctx, RegisterProfileParams{FirstName: "Alex", LastInitial: "k", StyleSamples: samples})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		second, err := svc.Register(ctx, RegisterProfileParams{FirstName: "Blair", LastInitial: "M", StyleSamples: samples})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		if first.CodeName != DefaultCodeNames[0] || first.Color != DefaultColors[0] {
			t.Fatalf("unexpected first identity %q/%q", first.CodeName, first.Color)
		}
		if second.CodeName != DefaultCodeNames[1] || second.Color != DefaultColors[1] {
			t.Fatalf("unexpected second identity %q/%q", second.CodeName, second.Color)
		}
		if first.LastInitial != "K" {
			t.Fatalf("last initial not upper-cased: %q", first.LastInitial)
		}
	})

	t.Run("validates intake data", func(t *testing.T) {
		svc := newProfileService()

		_, err := svc.Register(context.Background(), RegisterProfileParams{
			FirstName:    "  ",
			LastInitial:  "Ko",
			StyleSamples: []string{"only one", "  ", ""},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"first_name", "last_initial", "style_samples"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
	})
}

func TestProfileService_AddStyleSample(t *testing.T) {
	svc := newProfileService()
	ctx := context.Background()

	profile, err := svc.Register(ctx, RegisterProfileParams{
		FirstName:    "Alex",
		LastInitial:  "K",
		StyleSamples: []string{"omw", "lol no", "k fine"},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	updated, err := svc.AddStyleSample(ctx, profile.ID, "  brb dinner ")
	if err != nil {
		t.Fatalf("AddStyleSample failed: %v", err)
	}
	if len(updated.StyleSamples) != 4 || updated.StyleSamples[3] != "brb dinner" {
		t.Fatalf("unexpected samples %v", updated.StyleSamples)
	}

	if _, err := svc.AddStyleSample(ctx, profile.ID, "   "); err == nil {
		t.Fatal("expected a validation error for a blank sample")
	}
	if _, err := svc.AddStyleSample(ctx, "missing", "hello"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileService_Get(t *testing.T) {
	svc := newProfileService()
	ctx := context.Background()

	profile, err := svc.Register(ctx, RegisterProfileParams{
		FirstName:    "Alex",
		LastInitial:  "K",
		StyleSamples: []string{"omw", "lol no", "k fine"},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := svc.Get(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// The returned copy must not alias the stored samples.
	got.StyleSamples[0] = "mutated"
	again, err := svc.Get(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if again.StyleSamples[0] != "omw" {
		t.Fatal("Get returned shared backing storage")
	}

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
