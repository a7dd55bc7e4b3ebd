package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/whosreal/internal/application"
)

type messageService interface {
	Messages(ctx context.Context, roomID string, limit int, before *time.Time) ([]application.Message, error)
	PostMessage(ctx context.Context, params application.PostParams) (application.Message, error)
}

type MessageHandler struct {
	service   messageService
	responder responder
	logger    *slog.Logger
}

func NewMessageHandler(service messageService, logger *slog.Logger) *MessageHandler {
	base := defaultLogger(logger)
	return &MessageHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MessageHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MessageHandler", operation, attrs...)
}

// List serves one history page, oldest-first. "limit" bounds the page size
// and "before" (RFC 3339) fetches strictly older messages for load-older
// pagination.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		limit = parsed
	}

	var before *time.Time
	if raw := query.Get("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCursor)
			return
		}
		before = &parsed
	}

	messages, err := h.service.Messages(r.Context(), ps.ByName("id"), limit, before)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]messageDTO, len(messages))
	for i, m := range messages {
		dtos[i] = toMessageDTO(m)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageListResponse{Messages: dtos})
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode message request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	message, err := h.service.PostMessage(r.Context(), application.PostParams{
		RoomID:        ps.ByName("id"),
		ParticipantID: req.ParticipantID,
		Text:          req.Text,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, messageResponse{Message: toMessageDTO(message)})
}

type postMessageRequest struct {
	ParticipantID string `json:"participant_id"`
	Text          string `json:"text"`
}

type messageDTO struct {
	ID     int64     `json:"id"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

type messageResponse struct {
	Message messageDTO `json:"message"`
}

type messageListResponse struct {
	Messages []messageDTO `json:"messages"`
}

func toMessageDTO(m application.Message) messageDTO {
	return messageDTO{ID: m.ID, Author: m.Author, Text: m.Text, SentAt: m.SentAt}
}
