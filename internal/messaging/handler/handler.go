package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"safedesk/internal/messaging/models"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/platform/httputil"
	"safedesk/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the messaging operations exposed over HTTP.
type Service interface {
	List(ctx context.Context, ref string, proof models.Proof) ([]*models.Message, error)
	Post(ctx context.Context, ref string, role models.SenderRole, body string, proof models.Proof) (*models.Message, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the conversation routes. They must run behind optional
// reviewer authentication so either a PIN or a session can be presented.
func (h *Handler) Register(r chi.Router) {
	r.Get("/complaints/{ref}/messages", h.HandleList)
	r.Post("/complaints/{ref}/messages", h.HandlePost)
}

// PostRequest is the HTTP request body for POST /complaints/{ref}/messages.
type PostRequest struct {
	Message    string `json:"message"`
	SenderRole string `json:"senderRole"`
	PIN        string `json:"pin"`

	parsedRole models.SenderRole
}

func (r *PostRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Message) == "" || strings.TrimSpace(r.SenderRole) == "" {
		return dErrors.New(dErrors.CodeValidation, "message and senderRole are required")
	}
	role, err := models.ParseSenderRole(r.SenderRole)
	if err != nil {
		return err
	}
	r.parsedRole = role
	r.PIN = strings.TrimSpace(r.PIN)
	return nil
}

func (r *PostRequest) ParsedRole() models.SenderRole { return r.parsedRole }

// HandleList handles GET /complaints/{ref}/messages.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	proof := proofFrom(ctx, r.URL.Query().Get("pin"))

	msgs, err := h.service.List(ctx, chi.URLParam(r, "ref"), proof)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list messages",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	httputil.WriteJSON(w, http.StatusOK, msgs)
}

// HandlePost handles POST /complaints/{ref}/messages.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PostRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	msg, err := h.service.Post(ctx, chi.URLParam(r, "ref"), req.ParsedRole(), req.Message, proofFrom(ctx, req.PIN))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to post message",
			"request_id", requestID,
			"sender_role", req.ParsedRole(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, msg)
}

// proofFrom combines the optional reviewer session with a presented PIN.
func proofFrom(ctx context.Context, pin string) models.Proof {
	pin = strings.TrimSpace(pin)
	reviewerID := requestcontext.ReviewerID(ctx)
	if reviewerID.IsNil() {
		return models.PINProof(pin)
	}
	proof := models.SessionProof(reviewerID, requestcontext.OrganizationID(ctx))
	proof.PIN = pin
	return proof
}
