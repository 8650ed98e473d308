package reviewer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"safedesk/internal/auth/models"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/sentinel"
	"safedesk/pkg/testutil"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	org   id.OrganizationID
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.org = testutil.NewOrganizationID()
}

func (s *InMemorySuite) newReviewer(email string) *models.Reviewer {
	r, err := models.NewReviewer(id.NewReviewerID(), s.org, email, "Committee Member", id.RoleCommittee, "hash", time.Now())
	s.Require().NoError(err)
	return r
}

func (s *InMemorySuite) TestLookup() {
	r := s.newReviewer("Chair@Example.com ")
	s.Require().NoError(s.store.Save(s.ctx, r))

	s.Run("email lookup ignores case and padding", func() {
		found, err := s.store.FindByEmail(s.ctx, "  chair@example.COM")
		s.Require().NoError(err)
		s.Equal(r.ID, found.ID)
		s.Equal("chair@example.com", found.Email)
	})

	s.Run("by id", func() {
		found, err := s.store.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(r, found)
	})

	s.Run("unknown", func() {
		_, err := s.store.FindByEmail(s.ctx, "nobody@example.com")
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByID(s.ctx, id.NewReviewerID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemorySuite) TestEmailIsUnique() {
	first := s.newReviewer("chair@example.com")
	s.Require().NoError(s.store.Save(s.ctx, first))

	s.ErrorIs(s.store.Save(s.ctx, s.newReviewer("chair@example.com")), sentinel.ErrConflict)

	s.Run("owner may re-save and change address", func() {
		first.Email = "lead@example.com"
		s.Require().NoError(s.store.Save(s.ctx, first))
		_, err := s.store.FindByEmail(s.ctx, "chair@example.com")
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.Require().NoError(s.store.Save(s.ctx, s.newReviewer("chair@example.com")))
	})
}

func (s *InMemorySuite) TestRecordLogin() {
	r := s.newReviewer("chair@example.com")
	s.Require().NoError(s.store.Save(s.ctx, r))
	at := time.Date(2025, 6, 5, 8, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.RecordLogin(s.ctx, r.ID, at))
	found, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.LastLoginAt)
	s.Equal(at, *found.LastLoginAt)

	s.ErrorIs(s.store.RecordLogin(s.ctx, id.NewReviewerID(), at), sentinel.ErrNotFound)
}
