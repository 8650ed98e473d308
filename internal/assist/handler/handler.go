package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"safedesk/internal/assist/service"
	"safedesk/pkg/platform/httputil"
	"safedesk/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the writing assistant operations exposed over HTTP.
type Service interface {
	Improve(ctx context.Context, description string) (*service.Improvement, error)
	Guidance(ctx context.Context, question string) (*service.Answer, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterImprove mounts POST /ai/improve.
func (h *Handler) RegisterImprove(r chi.Router) {
	r.Post("/ai/improve", h.HandleImprove)
}

// RegisterGuidance mounts POST /ai/guidance.
func (h *Handler) RegisterGuidance(r chi.Router) {
	r.Post("/ai/guidance", h.HandleGuidance)
}

type ImproveRequest struct {
	Description string `json:"description"`
}

func (r *ImproveRequest) Validate() error {
	r.Description = strings.TrimSpace(r.Description)
	return nil
}

type GuidanceRequest struct {
	Question string `json:"question"`
}

func (r *GuidanceRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	return nil
}

// HandleImprove handles POST /ai/improve.
func (h *Handler) HandleImprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ImproveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	imp, err := h.service.Improve(ctx, req.Description)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, imp)
}

// HandleGuidance handles POST /ai/guidance.
func (h *Handler) HandleGuidance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GuidanceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	answer, err := h.service.Guidance(ctx, req.Question)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, answer)
}
