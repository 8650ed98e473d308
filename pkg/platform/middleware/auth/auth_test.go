package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	id "safedesk/pkg/domain"
	"safedesk/pkg/requestcontext"
)

type stubValidator struct {
	claims *Claims
	err    error
}

func (v stubValidator) ValidateToken(string) (*Claims, error) {
	return v.claims, v.err
}

type AuthMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
	claims *Claims
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.claims = &Claims{
		ReviewerID:     id.ReviewerID(uuid.New()),
		OrganizationID: id.OrganizationID(uuid.New()),
		Role:           id.RoleCommittee,
	}
}

func (s *AuthMiddlewareSuite) serve(mw func(http.Handler) http.Handler, authHeader string) (*httptest.ResponseRecorder, id.ReviewerID) {
	var seen id.ReviewerID
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.ReviewerID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func (s *AuthMiddlewareSuite) TestRequireReviewer() {
	s.Run("valid token sets reviewer context", func() {
		rec, seen := s.serve(RequireReviewer(stubValidator{claims: s.claims}, s.logger), "Bearer good")
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(s.claims.ReviewerID, seen)
	})

	s.Run("missing header is unauthorized", func() {
		rec, _ := s.serve(RequireReviewer(stubValidator{claims: s.claims}, s.logger), "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("invalid token is unauthorized", func() {
		rec, _ := s.serve(RequireReviewer(stubValidator{err: errors.New("bad")}, s.logger), "Bearer bad")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *AuthMiddlewareSuite) TestOptionalReviewer() {
	s.Run("anonymous passes through", func() {
		rec, seen := s.serve(OptionalReviewer(stubValidator{err: errors.New("unused")}, s.logger), "")
		s.Equal(http.StatusOK, rec.Code)
		s.True(uuid.UUID(seen) == uuid.Nil)
	})

	s.Run("bad token is rejected", func() {
		rec, _ := s.serve(OptionalReviewer(stubValidator{err: errors.New("expired")}, s.logger), "Bearer old")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := RequireRole(logger, id.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req = req.WithContext(requestcontext.WithReviewer(req.Context(), id.ReviewerID(uuid.New()), id.OrganizationID(uuid.New()), id.RoleCommittee))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = req.WithContext(requestcontext.WithReviewer(req.Context(), id.ReviewerID(uuid.New()), id.OrganizationID(uuid.New()), id.RoleAdmin))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
