package application

import (
	"errors"
	"strings"
	"testing"
)

func TestClearCodeRoundTrip(t *testing.T) {
	hash, err := CreateClearCodeHash("sesame", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreateClearCodeHash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	if err := VerifyClearCode(hash, "sesame"); err != nil {
		t.Fatalf("VerifyClearCode rejected the correct code: %v", err)
	}
	if err := VerifyClearCode(hash, "open sesame"); !errors.Is(err, ErrClearCodeMismatch) {
		t.Fatalf("expected ErrClearCodeMismatch, got %v", err)
	}
}

func TestVerifyClearCode_MalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"wrong segment count", "$argon2id$v=19$m=65536,t=3,p=2$salt"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := VerifyClearCode(tt.hash, "sesame"); !errors.Is(err, ErrInvalidClearCodeHash) {
				t.Fatalf("expected ErrInvalidClearCodeHash, got %v", err)
			}
		})
	}
}
