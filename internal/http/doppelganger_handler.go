package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/example/whosreal/internal/application"
)

type doppelgangerService interface {
	Trigger(ctx context.Context, roomID, profileID string) (application.Message, bool, error)
}

type DoppelgangerHandler struct {
	service   doppelgangerService
	responder responder
	logger    *slog.Logger
}

func NewDoppelgangerHandler(service doppelgangerService, logger *slog.Logger) *DoppelgangerHandler {
	base := defaultLogger(logger)
	return &DoppelgangerHandler{service: service, responder: newResponder(base), logger: base}
}

// Trigger runs one pipeline invocation. The response reports whether the
// persona spoke; a quiet pass is a success, not an error.
func (h *DoppelgangerHandler) Trigger(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req doppelgangerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlerLogger(r.Context(), h.logger, "DoppelgangerHandler", "Trigger", "error_kind", "bad_request").
			ErrorContext(r.Context(), "failed to decode doppelganger request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	message, posted, err := h.service.Trigger(r.Context(), ps.ByName("id"), req.ProfileID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := doppelgangerResponse{Posted: posted}
	if posted {
		dto := toMessageDTO(message)
		resp.Message = &dto
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type doppelgangerRequest struct {
	ProfileID string `json:"profile_id"`
}

type doppelgangerResponse struct {
	Posted  bool        `json:"posted"`
	Message *messageDTO `json:"message,omitempty"`
}
