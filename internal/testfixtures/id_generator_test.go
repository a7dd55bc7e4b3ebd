package testfixtures

import "testing"

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("participant")

	if got := gen.Next(); got != "participant-1" {
		t.Fatalf("unexpected first id %q", got)
	}
	if got := gen.Next(); got != "participant-2" {
		t.Fatalf("unexpected second id %q", got)
	}
}

func TestIDGeneratorDefaultPrefix(t *testing.T) {
	gen := NewIDGenerator("")
	if got := gen.Next(); got != "id-1" {
		t.Fatalf("unexpected id %q", got)
	}
}

func TestIDGeneratorNextFuncNilReceiver(t *testing.T) {
	var gen *IDGenerator
	if got := gen.NextFunc()(); got != "" {
		t.Fatalf("expected empty id from nil generator, got %q", got)
	}
}
