package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/whosreal/internal/application"
)

type roomService interface {
	EnsureRoom(ctx context.Context, roomID string, requiredCount int) (application.Room, error)
	Join(ctx context.Context, params application.JoinParams) (application.JoinResult, error)
	Evaluate(ctx context.Context, roomID string) (application.Evaluation, error)
	Clear(ctx context.Context, params application.ClearParams) (application.Evaluation, error)
	ListRooms(ctx context.Context) ([]application.RoomSummary, error)
}

type RoomHandler struct {
	service     roomService
	responder   responder
	idGenerator func() string
	logger      *slog.Logger
}

// NewRoomHandler constructs the room endpoints. idGenerator supplies
// participant ids for joins that do not carry one.
func NewRoomHandler(service roomService, idGenerator func() string, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &RoomHandler{service: service, responder: newResponder(base), idGenerator: idGenerator, logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req ensureRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	room, err := h.service.EnsureRoom(r.Context(), req.ID, req.RequiredCount)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	summaries, err := h.service.ListRooms(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]roomSummaryDTO, len(summaries))
	for i, summary := range summaries {
		dtos[i] = toRoomSummaryDTO(summary)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomListResponse{Rooms: dtos})
}

func (h *RoomHandler) State(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	evaluation, err := h.service.Evaluate(r.Context(), ps.ByName("id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEvaluationDTO(evaluation))
}

func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Join", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode join request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if req.ParticipantID == "" {
		req.ParticipantID = h.idGenerator()
	}

	result, err := h.service.Join(r.Context(), application.JoinParams{
		RoomID:        ps.ByName("id"),
		ParticipantID: req.ParticipantID,
		DisplayName:   req.DisplayName,
		RequiredCount: req.RequiredCount,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, joinResponse{
		Room:          toRoomDTO(result.Room),
		ParticipantID: result.Membership.ParticipantID,
		DisplayName:   result.Membership.DisplayName,
		Evaluation:    toEvaluationDTO(result.Evaluation),
		Armed:         result.Armed,
	})
}

func (h *RoomHandler) Clear(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req clearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Clear", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode clear request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	evaluation, err := h.service.Clear(r.Context(), application.ClearParams{
		RoomID: ps.ByName("id"),
		Code:   req.Code,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEvaluationDTO(evaluation))
}

type ensureRoomRequest struct {
	ID            string `json:"id"`
	RequiredCount int    `json:"required_count"`
}

type joinRequest struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	RequiredCount int    `json:"required_count"`
}

type clearRequest struct {
	Code string `json:"code"`
}

type roomDTO struct {
	ID            string     `json:"id"`
	RequiredCount int        `json:"required_count"`
	CreatedAt     time.Time  `json:"created_at"`
	CloseAt       *time.Time `json:"close_at,omitempty"`
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type roomSummaryDTO struct {
	ID            string     `json:"id"`
	State         string     `json:"state"`
	MemberCount   int        `json:"member_count"`
	RequiredCount int        `json:"required_count"`
	CloseAt       *time.Time `json:"close_at,omitempty"`
}

type roomListResponse struct {
	Rooms []roomSummaryDTO `json:"rooms"`
}

type evaluationDTO struct {
	State            string     `json:"state"`
	Have             int        `json:"have"`
	Want             int        `json:"want"`
	RemainingSeconds int        `json:"remaining_seconds"`
	CloseAt          *time.Time `json:"close_at,omitempty"`
	Reason           string     `json:"reason,omitempty"`
}

type joinResponse struct {
	Room          roomDTO       `json:"room"`
	ParticipantID string        `json:"participant_id"`
	DisplayName   string        `json:"display_name"`
	Evaluation    evaluationDTO `json:"evaluation"`
	Armed         bool          `json:"armed"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{ID: room.ID, RequiredCount: room.RequiredCount, CreatedAt: room.CreatedAt, CloseAt: room.CloseAt}
}

func toRoomSummaryDTO(summary application.RoomSummary) roomSummaryDTO {
	return roomSummaryDTO{
		ID:            summary.ID,
		State:         string(summary.State),
		MemberCount:   summary.MemberCount,
		RequiredCount: summary.RequiredCount,
		CloseAt:       summary.CloseAt,
	}
}

func toEvaluationDTO(evaluation application.Evaluation) evaluationDTO {
	return evaluationDTO{
		State:            string(evaluation.State),
		Have:             evaluation.Have,
		Want:             evaluation.Want,
		RemainingSeconds: evaluation.RemainingSeconds,
		CloseAt:          evaluation.CloseAt,
		Reason:           evaluation.Reason,
	}
}
