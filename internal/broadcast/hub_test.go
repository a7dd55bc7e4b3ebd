package broadcast

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeWire records written events and can be told to start failing.
type fakeWire struct {
	mu     sync.Mutex
	events []any
	failAt int // fail writes once this many succeeded; 0 means never
	closed bool
}

func (w *fakeWire) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failAt > 0 && len(w.events) >= w.failAt {
		return errors.New("connection reset")
	}
	w.events = append(w.events, v)
	return nil
}

func (w *fakeWire) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWire) snapshot() []any {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]any, len(w.events))
	copy(out, w.events)
	return out
}

func (w *fakeWire) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHub_Broadcast(t *testing.T) {
	t.Run("delivers to every connection of the room", func(t *testing.T) {
		hub := NewHub(nil)
		wireA, wireB := &fakeWire{}, &fakeWire{}
		hub.Register("LUNCH", "p1", wireA)
		hub.Register("LUNCH", "p2", wireB)

		other := &fakeWire{}
		hub.Register("DINNER", "p3", other)

		hub.Broadcast("LUNCH", NewSystemEvent("LUNCH", "Alex joined"))

		waitFor(t, func() bool { return len(wireA.snapshot()) == 1 && len(wireB.snapshot()) == 1 })
		if len(other.snapshot()) != 0 {
			t.Fatal("event leaked into another room")
		}
	})

	t.Run("preserves per-room ordering", func(t *testing.T) {
		hub := NewHub(nil)
		wire := &fakeWire{}
		hub.Register("LUNCH", "p1", wire)

		for i := 0; i < 5; i++ {
			hub.Broadcast("LUNCH", NewChatEvent("LUNCH", "Alex", time.Duration(i).String(), time.Now()))
		}

		waitFor(t, func() bool { return len(wire.snapshot()) == 5 })
		for i, raw := range wire.snapshot() {
			ev, ok := raw.(ChatEvent)
			if !ok {
				t.Fatalf("event %d has type %T", i, raw)
			}
			if ev.Text != time.Duration(i).String() {
				t.Fatalf("event %d out of order: %q", i, ev.Text)
			}
		}
	})

	t.Run("broadcast to an empty room is a no-op", func(t *testing.T) {
		hub := NewHub(nil)
		hub.Broadcast("NOPE", NewSystemEvent("NOPE", "hello?"))
	})
}

func TestHub_DropsFailingConnections(t *testing.T) {
	hub := NewHub(nil)
	healthy := &fakeWire{}
	failing := &fakeWire{failAt: 1}
	hub.Register("LUNCH", "p1", healthy)
	hub.Register("LUNCH", "p2", failing)

	hub.Broadcast("LUNCH", NewSystemEvent("LUNCH", "one"))
	waitFor(t, func() bool { return len(failing.snapshot()) == 1 })

	// The next write to the failing wire errors, which must unregister it
	// and close the transport without disturbing the healthy connection.
	hub.Broadcast("LUNCH", NewSystemEvent("LUNCH", "two"))
	waitFor(t, func() bool { return failing.isClosed() })
	waitFor(t, func() bool { return hub.ConnectionCount("LUNCH") == 1 })

	hub.Broadcast("LUNCH", NewSystemEvent("LUNCH", "three"))
	waitFor(t, func() bool { return len(healthy.snapshot()) == 3 })
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(nil)
	wire := &fakeWire{}
	conn := hub.Register("LUNCH", "p1", wire)

	hub.Unregister(conn)
	hub.Unregister(conn) // idempotent

	if hub.ConnectionCount("LUNCH") != 0 {
		t.Fatal("connection still registered")
	}
	waitFor(t, func() bool { return wire.isClosed() })

	if conn.Deliver(NewSystemEvent("LUNCH", "late")) {
		t.Fatal("delivery to a dropped connection must fail")
	}
}

func TestConnection_Deliver(t *testing.T) {
	hub := NewHub(nil)
	wireA, wireB := &fakeWire{}, &fakeWire{}
	connA := hub.Register("LUNCH", "p1", wireA)
	hub.Register("LUNCH", "p2", wireB)

	if !connA.Deliver(NewSystemEvent("LUNCH", "just for you")) {
		t.Fatal("delivery failed")
	}

	waitFor(t, func() bool { return len(wireA.snapshot()) == 1 })
	if len(wireB.snapshot()) != 0 {
		t.Fatal("targeted delivery reached another connection")
	}
}
