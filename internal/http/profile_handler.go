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

type profileService interface {
	Register(ctx context.Context, params application.RegisterProfileParams) (application.Profile, error)
	Get(ctx context.Context, id string) (application.Profile, error)
	AddStyleSample(ctx context.Context, id, sample string) (application.Profile, error)
}

type ProfileHandler struct {
	service   profileService
	responder responder
	logger    *slog.Logger
}

func NewProfileHandler(service profileService, logger *slog.Logger) *ProfileHandler {
	base := defaultLogger(logger)
	return &ProfileHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ProfileHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ProfileHandler", operation, attrs...)
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode profile request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	profile, err := h.service.Register(r.Context(), application.RegisterProfileParams{
		FirstName:    req.FirstName,
		LastInitial:  req.LastInitial,
		StyleSamples: req.StyleSamples,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, profileResponse{Profile: toProfileDTO(profile)})
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	profile, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, profileResponse{Profile: toProfileDTO(profile)})
}

func (h *ProfileHandler) AddSample(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req styleSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "AddSample", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode sample request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	profile, err := h.service.AddStyleSample(r.Context(), ps.ByName("id"), req.Sample)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, profileResponse{Profile: toProfileDTO(profile)})
}

type profileRequest struct {
	FirstName    string   `json:"first_name"`
	LastInitial  string   `json:"last_initial"`
	StyleSamples []string `json:"style_samples"`
}

type styleSampleRequest struct {
	Sample string `json:"sample"`
}

type profileDTO struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastInitial string    `json:"last_initial"`
	CodeName    string    `json:"code_name"`
	Color       string    `json:"color"`
	SampleCount int       `json:"sample_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type profileResponse struct {
	Profile profileDTO `json:"profile"`
}

// The samples themselves never leave the server: other players must not be
// able to read a rival's style reference.
func toProfileDTO(profile application.Profile) profileDTO {
	return profileDTO{
		ID:          profile.ID,
		FirstName:   profile.FirstName,
		LastInitial: profile.LastInitial,
		CodeName:    profile.CodeName,
		Color:       profile.Color,
		SampleCount: len(profile.StyleSamples),
		CreatedAt:   profile.CreatedAt,
	}
}
