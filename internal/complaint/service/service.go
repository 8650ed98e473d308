// Package service implements the case lifecycle: submission, reporter
// verification, reviewer queries and status updates.
package service

import (
	"context"
	"log/slog"
	"time"

	"safedesk/internal/complaint/metrics"
	"safedesk/internal/complaint/models"
	"safedesk/internal/identity"
	orgmodels "safedesk/internal/organization/models"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/audit"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Store persists complaints. Execute must hold a lock (mutex or FOR UPDATE)
// across validate and mutate.
type Store interface {
	Create(ctx context.Context, c *models.Complaint) error
	FindByID(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error)
	FindByCaseNumber(ctx context.Context, caseNumber identity.CaseNumber) (*models.Complaint, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Complaint, error)
	Execute(ctx context.Context, complaintID id.ComplaintID, validate func(*models.Complaint) error, mutate func(*models.Complaint)) (*models.Complaint, error)
	Stats(ctx context.Context, orgID id.OrganizationID, monthStart time.Time) (*models.Stats, error)
}

// Issuer mints and checks case identities.
type Issuer interface {
	Issue(ctx context.Context) (*identity.Issued, error)
	Verify(pinHash, candidate string) bool
	VerifyAbsent(candidate string)
}

type OrganizationStore interface {
	FindByID(ctx context.Context, orgID id.OrganizationID) (*orgmodels.Organization, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service orchestrates the complaint aggregate.
type Service struct {
	store   Store
	issuer  Issuer
	orgs    OrganizationStore
	audit   AuditRecorder
	policy  models.TransitionPolicy
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

func WithAuditRecorder(r AuditRecorder) Option {
	return func(s *Service) {
		s.audit = r
	}
}

// WithOrganizations enables the organization existence check on submit.
func WithOrganizations(orgs OrganizationStore) Option {
	return func(s *Service) {
		s.orgs = orgs
	}
}

// WithStrictTransitions restricts reviewers to one forward step at a time.
func WithStrictTransitions(strict bool) Option {
	return func(s *Service) {
		if strict {
			s.policy = models.StrictTransitions{}
		} else {
			s.policy = models.PermissiveTransitions{}
		}
	}
}

func New(store Store, issuer Issuer, opts ...Option) *Service {
	s := &Service{
		store:  store,
		issuer: issuer,
		policy: models.PermissiveTransitions{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) record(ctx context.Context, entry audit.Entry) {
	if s.audit != nil {
		s.audit.Record(ctx, entry)
	}
}
