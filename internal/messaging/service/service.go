// Package service gates the per-case conversation between the anonymous
// reporter and the organization's reviewers.
package service

import (
	"context"
	"log/slog"
	"unicode/utf8"

	complaintmodels "safedesk/internal/complaint/models"
	"safedesk/internal/messaging/metrics"
	"safedesk/internal/messaging/models"
	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/platform/sanitize"
	"safedesk/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

const defaultMaxLength = 5000

// Store is the append-only message log.
type Store interface {
	Append(ctx context.Context, msg *models.Message) error
	ListByComplaint(ctx context.Context, complaintID id.ComplaintID) ([]*models.Message, error)
}

// Cases resolves case references and checks reporter PINs.
type Cases interface {
	Resolve(ctx context.Context, ref string) (*complaintmodels.Complaint, error)
	CheckPIN(complaint *complaintmodels.Complaint, pin string) bool
	CheckAbsentPIN(pin string)
}

type Service struct {
	store                Store
	cases                Cases
	reviewerClosedWrites bool
	maxLength            int
	logger               *slog.Logger
	metrics              *metrics.Metrics
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

// WithReviewerClosedWrites controls whether reviewers may post on Closed
// cases. Reporters never can.
func WithReviewerClosedWrites(allowed bool) Option {
	return func(s *Service) {
		s.reviewerClosedWrites = allowed
	}
}

func WithMaxLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLength = n
		}
	}
}

func New(store Store, cases Cases, opts ...Option) *Service {
	s := &Service{
		store:                store,
		cases:                cases,
		reviewerClosedWrites: true,
		maxLength:            defaultMaxLength,
		logger:               slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	errVerificationFailed = dErrors.New(dErrors.CodeUnauthorized, "verification failed")
	errProofRequired      = dErrors.New(dErrors.CodeUnauthorized, "pin or reviewer session required")
	errCaseNotFound       = dErrors.New(dErrors.CodeNotFound, "case not found")
	errCaseClosed         = dErrors.New(dErrors.CodeForbidden, "case is closed")
)

// List returns the case conversation, oldest first.
func (s *Service) List(ctx context.Context, ref string, proof models.Proof) ([]*models.Message, error) {
	complaint, err := s.authorize(ctx, ref, proof)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list messages")
	}
	return msgs, nil
}

// Post appends a message after checking that proof entitles the caller to
// speak as role on this case.
func (s *Service) Post(ctx context.Context, ref string, role models.SenderRole, body string, proof models.Proof) (*models.Message, error) {
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "senderRole must be reporter or reviewer")
	}
	clean, err := s.cleanBody(body)
	if err != nil {
		return nil, err
	}

	// The proof must match the claimed role: a session cannot speak for the
	// reporter and a PIN cannot speak for reviewers.
	switch role {
	case models.SenderReporter:
		if !proof.HasPIN() {
			s.metrics.IncrementDenied("missing_proof")
			return nil, errProofRequired
		}
		proof.Reviewer = nil
	case models.SenderReviewer:
		if !proof.IsReviewer() {
			s.metrics.IncrementDenied("missing_proof")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "reviewer session required")
		}
		proof.PIN = ""
	}

	complaint, err := s.authorize(ctx, ref, proof)
	if err != nil {
		return nil, err
	}
	if complaint.IsClosed() && (role == models.SenderReporter || !s.reviewerClosedWrites) {
		s.metrics.IncrementDenied("closed")
		return nil, errCaseClosed
	}

	msg, err := models.NewMessage(id.NewMessageID(), complaint.ID, role, clean, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, msg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save message")
	}
	s.metrics.IncrementPosted(role.String())
	return msg, nil
}

// PostSystemNotice appends a reviewer-side message on behalf of the system.
// It skips proof checks and joins any transaction in ctx.
func (s *Service) PostSystemNotice(ctx context.Context, complaintID id.ComplaintID, body string) (*models.Message, error) {
	msg, err := models.NewMessage(id.NewMessageID(), complaintID, models.SenderReviewer, sanitize.Text(body), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, msg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save system notice")
	}
	s.metrics.IncrementPosted("system")
	return msg, nil
}

// authorize resolves ref and checks proof against it. Reporter failures are
// uniform; reviewers outside the owning organization see NotFound.
func (s *Service) authorize(ctx context.Context, ref string, proof models.Proof) (*complaintmodels.Complaint, error) {
	if !proof.HasPIN() && !proof.IsReviewer() {
		s.metrics.IncrementDenied("missing_proof")
		return nil, errProofRequired
	}

	complaint, err := s.cases.Resolve(ctx, ref)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		if proof.IsReviewer() {
			return nil, errCaseNotFound
		}
		s.cases.CheckAbsentPIN(proof.PIN)
		s.metrics.IncrementDenied("verification")
		return nil, errVerificationFailed
	}

	if proof.IsReviewer() {
		if complaint.OrganizationID == proof.Reviewer.OrganizationID {
			return complaint, nil
		}
		if !proof.HasPIN() {
			return nil, errCaseNotFound
		}
	}
	if !s.cases.CheckPIN(complaint, proof.PIN) {
		s.metrics.IncrementDenied("verification")
		s.logger.InfoContext(ctx, "message access denied",
			"request_id", requestcontext.RequestID(ctx),
			"complaint_id", complaint.ID,
		)
		return nil, errVerificationFailed
	}
	return complaint, nil
}

func (s *Service) cleanBody(body string) (string, error) {
	if utf8.RuneCountInString(body) > s.maxLength {
		return "", dErrors.New(dErrors.CodeValidation, "message is too long")
	}
	clean := sanitize.Text(body)
	if clean == "" {
		return "", dErrors.New(dErrors.CodeValidation, "message is required")
	}
	return clean, nil
}

