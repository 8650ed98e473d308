package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safedesk/internal/evidence/models"
	"safedesk/internal/evidence/service"
	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/platform/httputil"
	"safedesk/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

const (
	// multipartOverhead allows for boundaries and part headers on top of the file.
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
	fileField         = "file"
)

// Service defines the evidence operations exposed over HTTP.
type Service interface {
	Ingest(ctx context.Context, ref string, upload service.Upload) (*models.Evidence, error)
	List(ctx context.Context, ref string, orgID id.OrganizationID) ([]*models.Evidence, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
	maxSize int64
}

func New(service Service, logger *slog.Logger, maxSize int64) *Handler {
	return &Handler{service: service, logger: logger, maxSize: maxSize}
}

// RegisterPublic mounts the upload route. Reporters upload without a
// session; callers apply rate limiting.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/evidence/{ref}", h.HandleUpload)
}

// RegisterReviewer mounts the listing route behind reviewer auth.
func (h *Handler) RegisterReviewer(r chi.Router) {
	r.Get("/evidence/{ref}", h.HandleList)
}

// HandleUpload handles POST /evidence/{ref} with a multipart "file" field.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartOverhead)
	file, header, err := h.formFile(r)
	if err != nil {
		h.logger.InfoContext(ctx, "evidence upload rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	defer file.Close()

	evidence, err := h.service.Ingest(ctx, chi.URLParam(r, "ref"), service.Upload{
		Body:         file,
		FileName:     header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
		Size:         header.Size,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "failed to ingest evidence",
			"request_id", requestID,
			"file_size", header.Size,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, evidence)
}

func (h *Handler) formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, dErrors.New(dErrors.CodePayloadTooLarge, "file exceeds maximum upload size")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "No file uploaded")
	}
	file, header, err := r.FormFile(fileField)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "No file uploaded")
	}
	return file, header, nil
}

// HandleList handles GET /evidence/{ref}.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.service.List(ctx, chi.URLParam(r, "ref"), requestcontext.OrganizationID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list evidence",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if list == nil {
		list = []*models.Evidence{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}
