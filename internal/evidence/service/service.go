// Package service accepts evidence uploads and lists them for reviewers.
// Scoring happens asynchronously in the pipeline package.
package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	complaintmodels "safedesk/internal/complaint/models"
	"safedesk/internal/evidence/blob"
	"safedesk/internal/evidence/intake"
	"safedesk/internal/evidence/metrics"
	"safedesk/internal/evidence/models"
	"safedesk/internal/evidence/pipeline"
	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/platform/sanitize"
	"safedesk/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

const (
	defaultMaxSize  = 10 << 20
	maxFileNameLen  = 255
	defaultFileName = "upload"
)

type Store interface {
	Create(ctx context.Context, e *models.Evidence) error
	ListByComplaint(ctx context.Context, complaintID id.ComplaintID) ([]*models.Evidence, error)
}

type Blobs interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

type Cases interface {
	Resolve(ctx context.Context, ref string) (*complaintmodels.Complaint, error)
	Get(ctx context.Context, ref string, orgID id.OrganizationID) (*complaintmodels.Complaint, error)
}

// Queue accepts scoring jobs. MarkFailed settles a record whose job could
// not be queued.
type Queue interface {
	Enqueue(ctx context.Context, job pipeline.Job) error
	MarkFailed(ctx context.Context, evidenceID id.EvidenceID)
}

type Service struct {
	store   Store
	blobs   Blobs
	cases   Cases
	queue   Queue
	maxSize int64
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithMaxSize(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

func New(store Store, blobs Blobs, cases Cases, queue Queue, opts ...Option) *Service {
	s := &Service{
		store:   store,
		blobs:   blobs,
		cases:   cases,
		queue:   queue,
		maxSize: defaultMaxSize,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload is one file as received from the transport.
type Upload struct {
	Body         io.Reader
	FileName     string
	DeclaredType string
	Size         int64
}

// Ingest validates, stores and records an upload against the case ref
// names. Rejected files leave nothing behind. Images are queued for
// scoring; everything else is stored as not applicable.
func (s *Service) Ingest(ctx context.Context, ref string, upload Upload) (*models.Evidence, error) {
	name := cleanFileName(upload.FileName)

	head := make([]byte, intake.SniffLength)
	n, err := io.ReadFull(upload.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read upload")
	}
	head = head[:n]

	accepted, err := intake.Check(name, upload.DeclaredType, upload.Size, s.maxSize, head)
	if err != nil {
		return nil, err
	}

	complaint, err := s.cases.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	key := blob.NewKey(accepted.Extension)
	written, checksum, err := s.put(ctx, key, io.MultiReader(bytes.NewReader(head), upload.Body), accepted.MediaType)
	if err != nil {
		return nil, err
	}

	evidence, err := models.NewEvidence(id.NewEvidenceID(), complaint.ID, key, s.blobs.URL(key),
		name, accepted.MediaType, checksum, written, requestcontext.Now(ctx))
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	if err := s.store.Create(ctx, evidence); err != nil {
		s.discard(ctx, key)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save evidence")
	}
	s.metrics.IncrementIngested()

	if evidence.IsImage() {
		s.enqueue(ctx, evidence, accepted.Extension)
	}
	return evidence, nil
}

// put streams the upload to blob storage, hashing as it goes. Bodies that
// turn out larger than declared are removed and rejected.
func (s *Service) put(ctx context.Context, key string, body io.Reader, mediaType string) (int64, string, error) {
	hasher := sha256.New()
	counter := &countingReader{r: io.LimitReader(body, s.maxSize+1)}
	if err := s.blobs.Put(ctx, key, io.TeeReader(counter, hasher), mediaType); err != nil {
		return 0, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store evidence")
	}
	if counter.n > s.maxSize {
		s.discard(ctx, key)
		return 0, "", dErrors.New(dErrors.CodePayloadTooLarge, "file exceeds maximum upload size")
	}
	return counter.n, hex.EncodeToString(hasher.Sum(nil)), nil
}

func (s *Service) enqueue(ctx context.Context, e *models.Evidence, ext string) {
	job := pipeline.Job{
		EvidenceID:  e.ID,
		ComplaintID: e.ComplaintID,
		StorageKey:  e.StorageKey,
		FileName:    e.FileName,
		Extension:   strings.TrimPrefix(ext, "."),
		RequestID:   requestcontext.RequestID(ctx),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.WarnContext(ctx, "evidence scoring not queued",
			"request_id", requestcontext.RequestID(ctx),
			"evidence_id", e.ID.String(),
			"error", err,
		)
		s.queue.MarkFailed(ctx, e.ID)
		e.ScoreState = models.ScoreFailed
	}
}

func (s *Service) discard(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "failed to remove orphaned blob",
			"request_id", requestcontext.RequestID(ctx),
			"storage_key", key,
			"error", err,
		)
	}
}

// List returns a case's evidence for a reviewer of orgID, oldest first.
func (s *Service) List(ctx context.Context, ref string, orgID id.OrganizationID) ([]*models.Evidence, error) {
	complaint, err := s.cases.Get(ctx, ref, orgID)
	if err != nil {
		return nil, err
	}
	evidence, err := s.store.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list evidence")
	}
	return evidence, nil
}

// cleanFileName keeps the base name only, stripped of markup and capped.
func cleanFileName(name string) string {
	name = sanitize.Text(name)
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, `\`, "/")))
	if name == "" || name == "." || name == "/" {
		return defaultFileName
	}
	if utf8.RuneCountInString(name) > maxFileNameLen {
		ext := filepath.Ext(name)
		runes := []rune(strings.TrimSuffix(name, ext))
		cut := maxFileNameLen - utf8.RuneCountInString(ext)
		if cut <= 0 || cut >= len(runes) {
			return string([]rune(name)[:maxFileNameLen])
		}
		name = string(runes[:cut]) + ext
	}
	return name
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
