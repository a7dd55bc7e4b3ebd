// Package broadcast fans events out to the live connections of a room. The
// registry tracks liveness only; durable membership is owned by the
// persistence layer and never touched here.
package broadcast

import (
	"log/slog"
	"sync"
)

// Wire is the transport a connection writes to. *websocket.Conn satisfies it.
type Wire interface {
	WriteJSON(v any) error
	Close() error
}

// sendBuffer bounds how far a slow reader may fall behind before it is
// dropped from the registry.
const sendBuffer = 16

// Connection is one live participant connection registered under a room.
type Connection struct {
	hub           *Hub
	roomID        string
	participantID string
	wire          Wire
	send          chan any
	dropped       bool
}

// RoomID returns the room this connection is registered under.
func (c *Connection) RoomID() string { return c.roomID }

// ParticipantID returns the participant the connection belongs to.
func (c *Connection) ParticipantID() string { return c.participantID }

// Deliver queues an event for this connection only. It reports false when
// the connection has been dropped or its buffer is full.
func (c *Connection) Deliver(event any) bool {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	return c.hub.enqueueLocked(c, event)
}

// Hub is the per-process connection registry. All registry mutations and
// queue writes happen under one mutex so a connection's channel is never
// closed concurrently with a send.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[*Connection]struct{}
	logger *slog.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{rooms: make(map[string]map[*Connection]struct{}), logger: logger}
}

// Register adds a live connection under a room and starts its write pump.
func (h *Hub) Register(roomID, participantID string, wire Wire) *Connection {
	c := &Connection{
		hub:           h,
		roomID:        roomID,
		participantID: participantID,
		wire:          wire,
		send:          make(chan any, sendBuffer),
	}

	h.mu.Lock()
	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[*Connection]struct{})
		h.rooms[roomID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	return c
}

// Unregister removes a connection from the registry and stops its write
// pump. Safe to call more than once.
func (h *Hub) Unregister(c *Connection) {
	h.mu.Lock()
	h.dropLocked(c)
	h.mu.Unlock()
}

// Broadcast queues an event for every live connection of a room. A
// connection whose buffer is full is dropped rather than block the caller;
// the durable message log remains the source of truth for reconnects.
func (h *Hub) Broadcast(roomID string, event any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		return
	}

	// Snapshot first: enqueueLocked may drop members mid-iteration.
	conns := make([]*Connection, 0, len(room))
	for c := range room {
		conns = append(conns, c)
	}
	for _, c := range conns {
		if !h.enqueueLocked(c, event) {
			h.logger.Debug("dropped slow connection",
				"room_id", roomID, "participant_id", c.participantID)
		}
	}
}

// ConnectionCount reports the number of live connections for a room.
func (h *Hub) ConnectionCount(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

func (h *Hub) enqueueLocked(c *Connection, event any) bool {
	if c.dropped {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		h.dropLocked(c)
		return false
	}
}

func (h *Hub) dropLocked(c *Connection) {
	if c.dropped {
		return
	}
	c.dropped = true
	close(c.send)

	if room, ok := h.rooms[c.roomID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
}

func (c *Connection) writePump() {
	defer func() { _ = c.wire.Close() }()
	for event := range c.send {
		if err := c.wire.WriteJSON(event); err != nil {
			c.hub.Unregister(c)
			// Drain whatever was queued so the closer is never blocked.
			for range c.send {
			}
			return
		}
	}
}
