// Package service signs reviewers in and resolves their sessions.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"safedesk/internal/auth/device"
	"safedesk/internal/auth/models"
	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/platform/audit"
	"safedesk/pkg/platform/sentinel"
	"safedesk/pkg/requestcontext"
	"safedesk/pkg/secrets"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

const defaultHashCost = 12

// errInvalidCredentials is returned for unknown emails and wrong passwords alike.
var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials")

type Store interface {
	FindByEmail(ctx context.Context, email string) (*models.Reviewer, error)
	FindByID(ctx context.Context, reviewerID id.ReviewerID) (*models.Reviewer, error)
	RecordLogin(ctx context.Context, reviewerID id.ReviewerID, at time.Time) error
}

type TokenIssuer interface {
	IssueToken(reviewerID id.ReviewerID, orgID id.OrganizationID, role id.Role, now time.Time) (string, time.Time, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type Service struct {
	reviewers Store
	tokens    TokenIssuer
	audit     AuditRecorder
	logger    *slog.Logger
	hashCost  int

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditRecorder(r AuditRecorder) Option {
	return func(s *Service) {
		s.audit = r
	}
}

// WithHashCost sets the bcrypt cost of the comparison run for unknown emails.
// It should match the cost reviewer passwords are hashed with.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

func New(reviewers Store, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		reviewers: reviewers,
		tokens:    tokens,
		logger:    slog.Default(),
		hashCost:  defaultHashCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult is a signed session plus the reviewer it belongs to.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Reviewer  models.Profile
}

// Login checks credentials and issues a session token. Unknown emails cost
// the same bcrypt comparison as wrong passwords.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	reviewer, err := s.reviewers.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reviewer")
		}
		_ = secrets.Matches(password, s.equalizerHash())
		return nil, errInvalidCredentials
	}
	if !secrets.Matches(password, reviewer.PasswordHash) {
		return nil, errInvalidCredentials
	}

	now := requestcontext.Now(ctx)
	token, expiresAt, err := s.tokens.IssueToken(reviewer.ID, reviewer.OrganizationID, reviewer.Role, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session")
	}

	if err := s.reviewers.RecordLogin(ctx, reviewer.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record reviewer login time",
			"request_id", requestcontext.RequestID(ctx),
			"reviewer_id", reviewer.ID.String(),
			"error", err,
		)
	}

	details := device.AuditDetails(requestcontext.UserAgent(ctx))
	details["organizationId"] = reviewer.OrganizationID.String()
	details["role"] = string(reviewer.Role)
	details["clientIp"] = requestcontext.ClientIP(ctx)
	if s.audit != nil {
		s.audit.Record(ctx, audit.Entry{
			Action:  audit.ActionReviewerLogin,
			ActorID: reviewer.ID.String(),
			Details: details,
		})
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Reviewer: reviewer.Profile()}, nil
}

// Me returns the profile behind an authenticated session.
func (s *Service) Me(ctx context.Context, reviewerID id.ReviewerID) (*models.Profile, error) {
	reviewer, err := s.reviewers.FindByID(ctx, reviewerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "reviewer no longer exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reviewer")
	}
	profile := reviewer.Profile()
	return &profile, nil
}

func (s *Service) equalizerHash() string {
	s.dummyOnce.Do(func() {
		hash, err := secrets.Hash("safedesk-login-equalizer", s.hashCost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
