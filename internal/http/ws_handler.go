package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/example/whosreal/internal/application"
	"github.com/example/whosreal/internal/broadcast"
)

type liveService interface {
	Join(ctx context.Context, params application.JoinParams) (application.JoinResult, error)
	PostMessage(ctx context.Context, params application.PostParams) (application.Message, error)
}

// WSHandler upgrades room connections and bridges client frames to the
// lifecycle controller and the hub.
type WSHandler struct {
	service   liveService
	hub       *broadcast.Hub
	responder responder
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

func NewWSHandler(service liveService, hub *broadcast.Hub, logger *slog.Logger) *WSHandler {
	base := defaultLogger(logger)
	return &WSHandler{
		service:   service,
		hub:       hub,
		responder: newResponder(base),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: base,
	}
}

// clientFrame is what a connected client may send upstream.
type clientFrame struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Target string `json:"target,omitempty"`
	Active bool   `json:"active,omitempty"`
}

// Serve joins the participant, upgrades the connection and pumps frames
// until the client disconnects. Chat frames go through the same commit-time
// gate as REST posts; a blocked post is echoed back to the sender only.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("id")
	participantID := r.URL.Query().Get("participant_id")
	displayName := r.URL.Query().Get("name")

	result, err := h.service.Join(r.Context(), application.JoinParams{
		RoomID:        roomID,
		ParticipantID: participantID,
		DisplayName:   displayName,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	roomID = result.Room.ID

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.ErrorContext(r.Context(), "websocket upgrade failed", "error", err, "room_id", roomID)
		return
	}

	live := h.hub.Register(roomID, participantID, conn)
	logger := handlerLogger(r.Context(), h.logger, "WSHandler", "Serve",
		"room_id", roomID,
		"participant_id", participantID,
	)
	logger.InfoContext(r.Context(), "connection established")

	defer func() {
		h.hub.Unregister(live)
		h.hub.Broadcast(roomID, broadcast.NewSystemEvent(roomID, result.Membership.DisplayName+" left"))
		logger.InfoContext(r.Context(), "connection closed")
	}()

	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Type {
		case broadcast.EventTypeChat:
			_, err := h.service.PostMessage(r.Context(), application.PostParams{
				RoomID:        roomID,
				ParticipantID: participantID,
				Text:          frame.Text,
			})
			if err != nil {
				var bErr *application.BlockedError
				if errors.As(err, &bErr) {
					live.Deliver(errorResponse{
						ErrorCode: "CHAT_BLOCKED",
						Message:   bErr.Reason,
						State:     string(bErr.State),
					})
					continue
				}
				logger.ErrorContext(r.Context(), "chat frame rejected", "error", err, "error_kind", application.ErrorKind(err))
				live.Deliver(errorResponse{Message: "message rejected"})
			}
		case broadcast.EventTypeTyping:
			h.hub.Broadcast(roomID, broadcast.NewTypingEvent(roomID, result.Membership.DisplayName, frame.Active))
		case broadcast.EventTypeVote:
			h.hub.Broadcast(roomID, broadcast.NewVoteEvent(roomID, result.Membership.DisplayName, frame.Target))
		default:
			logger.DebugContext(r.Context(), "ignoring unknown frame type", "type", frame.Type)
		}
	}
}
