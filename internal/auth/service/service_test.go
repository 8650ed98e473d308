package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"safedesk/internal/auth/models"
	"safedesk/internal/auth/service/mocks"
	reviewerstore "safedesk/internal/auth/store/reviewer"
	jwttoken "safedesk/internal/jwt_token"
	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/platform/audit"
	"safedesk/pkg/requestcontext"
	"safedesk/pkg/secrets"
	"safedesk/pkg/testutil"
)

const chromeOnMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type AuthServiceSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	auditor  *mocks.MockAuditRecorder
	store    *reviewerstore.InMemory
	tokens   *jwttoken.JWTService
	service  *Service
	reviewer *models.Reviewer
	now      time.Time
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.now = time.Now().UTC().Truncate(time.Second)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctx = requestcontext.WithClientMetadata(s.ctx, "203.0.113.9", chromeOnMac)
	s.ctrl = gomock.NewController(s.T())
	s.auditor = mocks.NewMockAuditRecorder(s.ctrl)
	s.store = reviewerstore.NewInMemory()
	s.tokens = jwttoken.NewJWTService("test-key", "safedesk", 7*24*time.Hour)
	s.service = New(s.store, s.tokens, WithAuditRecorder(s.auditor), WithHashCost(secrets.MinCost))

	hash, err := secrets.Hash("correct horse", secrets.MinCost)
	s.Require().NoError(err)
	s.reviewer, err = models.NewReviewer(id.NewReviewerID(), testutil.NewOrganizationID(), "chair@acme.example", "Chair", id.RoleCommittee, hash, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Save(s.ctx, s.reviewer))
}

func (s *AuthServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AuthServiceSuite) TestLogin() {
	s.Run("valid credentials issue a session", func() {
		var entry audit.Entry
		s.auditor.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e audit.Entry) { entry = e })

		res, err := s.service.Login(s.ctx, "Chair@Acme.example", "correct horse")
		s.Require().NoError(err)
		s.Equal(s.reviewer.Profile(), res.Reviewer)
		s.Equal(s.now.Add(7*24*time.Hour), res.ExpiresAt)

		claims, err := s.tokens.ValidateToken(res.Token)
		s.Require().NoError(err)
		s.Equal(s.reviewer.ID.String(), claims.ReviewerID)
		s.Equal(s.reviewer.OrganizationID.String(), claims.OrganizationID)

		s.Equal(audit.ActionReviewerLogin, entry.Action)
		s.Equal(s.reviewer.ID.String(), entry.ActorID)
		s.Equal("203.0.113.9", entry.Details["clientIp"])
		s.Contains(entry.Details["device"], "Chrome")

		stored, err := s.store.FindByID(s.ctx, s.reviewer.ID)
		s.Require().NoError(err)
		s.Require().NotNil(stored.LastLoginAt)
		s.Equal(s.now, *stored.LastLoginAt)
	})

	s.Run("wrong password and unknown email look the same", func() {
		_, wrongPassword := s.service.Login(s.ctx, "chair@acme.example", "wrong")
		_, unknownEmail := s.service.Login(s.ctx, "nobody@acme.example", "correct horse")
		s.ErrorIs(wrongPassword, errInvalidCredentials)
		s.ErrorIs(unknownEmail, errInvalidCredentials)
		s.Equal(wrongPassword.Error(), unknownEmail.Error())
	})
}

func (s *AuthServiceSuite) TestMe() {
	profile, err := s.service.Me(s.ctx, s.reviewer.ID)
	s.Require().NoError(err)
	s.Equal("Chair", profile.DisplayName)
	s.Equal(id.RoleCommittee, profile.Role)

	_, err = s.service.Me(s.ctx, id.NewReviewerID())
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestLoginStoreFailureIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	tokens := mocks.NewMockTokenIssuer(ctrl)
	svc := New(store, tokens)

	store.EXPECT().FindByEmail(gomock.Any(), "chair@acme.example").Return(nil, errors.New("db down"))

	_, err := svc.Login(context.Background(), "chair@acme.example", "pw")
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
