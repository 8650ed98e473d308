package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"safedesk/internal/alert/service"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/platform/httputil"
	"safedesk/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the emergency alert operation exposed over HTTP.
type Service interface {
	Send(ctx context.Context, sos service.SOS) (*service.Dispatch, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts POST /emergency/sos.
func (h *Handler) Register(r chi.Router) {
	r.Post("/emergency/sos", h.HandleSOS)
}

// SOSRequest is the HTTP request body for POST /emergency/sos.
type SOSRequest struct {
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	PhoneNumber string   `json:"phone_number"`
}

func (r *SOSRequest) Validate() error {
	if r.Lat == nil || r.Lng == nil {
		return dErrors.New(dErrors.CodeValidation, "Location missing")
	}
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	if r.PhoneNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "phone_number is required")
	}
	return nil
}

// HandleSOS handles POST /emergency/sos.
func (h *Handler) HandleSOS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SOSRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	dispatch, err := h.service.Send(ctx, service.SOS{
		Lat:         *req.Lat,
		Lng:         *req.Lng,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dispatch)
}
