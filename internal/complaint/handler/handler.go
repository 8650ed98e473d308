package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safedesk/internal/complaint/models"
	"safedesk/internal/complaint/service"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/httputil"
	"safedesk/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the case operations exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, cmd service.SubmitCommand) (*service.SubmitResult, error)
	Verify(ctx context.Context, caseNumber, pin string) (*models.Complaint, error)
	Get(ctx context.Context, ref string, orgID id.OrganizationID) (*models.Complaint, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Complaint, error)
	UpdateStatus(ctx context.Context, ref string, orgID id.OrganizationID, actor id.ReviewerID, update models.StatusUpdate) (*models.Complaint, error)
	Stats(ctx context.Context, orgID id.OrganizationID) (*models.Stats, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterSubmit mounts case filing. Callers wrap it with the submission
// rate limit.
func (h *Handler) RegisterSubmit(r chi.Router) {
	r.Post("/complaints", h.HandleSubmit)
}

// RegisterPublic mounts routes reachable with a case PIN alone.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/complaints/verify", h.HandleVerify)
}

// RegisterReviewer mounts routes that require a reviewer session.
func (h *Handler) RegisterReviewer(r chi.Router) {
	r.Get("/complaints", h.HandleList)
	r.Get("/complaints/{ref}", h.HandleGet)
	r.Patch("/complaints/{ref}/status", h.HandleUpdateStatus)
}

// RegisterAdmin mounts routes that require the admin role.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/stats", h.HandleStats)
}

// HandleSubmit handles POST /complaints.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Submit(ctx, service.SubmitCommand{
		OrganizationID: req.ParsedOrganizationID(),
		Incident:       req.Incident(),
		Severity:       req.ParsedSeverity(),
		IsAnonymous:    req.Anonymous(),
		ReporterRef:    req.ReporterRef,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to submit complaint",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromSubmitResult(res))
}

// HandleVerify handles POST /complaints/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	complaint, err := h.service.Verify(ctx, req.CaseID, req.PIN)
	if err != nil {
		h.logger.WarnContext(ctx, "case verification failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{
		Complaint:   complaint,
		ComplaintID: complaint.ID.String(),
	})
}

// HandleList handles GET /complaints.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	filter, err := parseListFilter(requestcontext.OrganizationID(ctx), r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	complaints, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list complaints",
			"request_id", requestID,
			"reviewer_id", requestcontext.ReviewerID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if complaints == nil {
		complaints = []*models.Complaint{}
	}
	httputil.WriteJSON(w, http.StatusOK, complaints)
}

// HandleGet handles GET /complaints/{ref}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	complaint, err := h.service.Get(ctx, chi.URLParam(r, "ref"), requestcontext.OrganizationID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load complaint",
			"request_id", requestcontext.RequestID(ctx),
			"reviewer_id", requestcontext.ReviewerID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, complaint)
}

// HandleUpdateStatus handles PATCH /complaints/{ref}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	reviewerID := requestcontext.ReviewerID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	complaint, err := h.service.UpdateStatus(ctx, chi.URLParam(r, "ref"),
		requestcontext.OrganizationID(ctx), reviewerID, req.ParsedUpdate())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update complaint status",
			"request_id", requestID,
			"reviewer_id", reviewerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "complaint status updated",
		"request_id", requestID,
		"reviewer_id", reviewerID,
		"complaint_id", complaint.ID,
		"status", complaint.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, complaint)
}

// HandleStats handles GET /admin/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Stats(ctx, requestcontext.OrganizationID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute statistics",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
