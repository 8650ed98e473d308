//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	complaintmodels "safedesk/internal/complaint/models"
	complaintstore "safedesk/internal/complaint/store"
	"safedesk/internal/evidence/models"
	"safedesk/internal/evidence/store"
	"safedesk/internal/identity"
	orgmodels "safedesk/internal/organization/models"
	orgstore "safedesk/internal/organization/store"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/sentinel"
	"safedesk/pkg/testutil"
	"safedesk/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *store.Postgres
	complaint id.ComplaintID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "messages", "evidence", "complaints", "organizations"))

	org, err := orgmodels.NewOrganization(testutil.NewOrganizationID(), "Acme", "", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(orgstore.NewPostgres(s.postgres.DB).Save(ctx, org))

	c, err := complaintmodels.NewComplaint(id.NewComplaintID(), identity.FormatCaseNumber("SD", 2025, 1), org.ID,
		complaintmodels.Incident{Type: complaintmodels.IncidentOther, Date: "2025-05-01", Location: "HQ", Description: "d", AccusedRole: "Lead"},
		complaintmodels.SeverityLow, true, "hash", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(complaintstore.NewPostgres(s.postgres.DB).Create(ctx, c))
	s.complaint = c.ID
}

func (s *PostgresStoreSuite) newEvidence(mediaType string, at time.Time) *models.Evidence {
	e, err := models.NewEvidence(id.NewEvidenceID(), s.complaint, id.NewEvidenceID().String()+".png",
		"/uploads/x.png", "photo.png", mediaType, "abc123", 2048, at)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), e))
	return e
}

func (s *PostgresStoreSuite) TestRoundTripWithAssessment() {
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Microsecond)
	e := s.newEvidence("image/png", at)

	found, err := s.store.FindByID(ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(models.ScorePending, found.ScoreState)
	s.Nil(found.Assessment)

	score := 0.12
	_, err = s.store.Execute(ctx, e.ID,
		func(ev *models.Evidence) error { return ev.CanResolve() },
		func(ev *models.Evidence) {
			ev.ApplyVerdict(models.Verdict{Score: &score, Details: map[string]any{"isAI": false}}, at)
		})
	s.Require().NoError(err)

	found, err = s.store.FindByID(ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(models.ScoreScored, found.ScoreState)
	s.Require().NotNil(found.Assessment)
	s.False(found.Assessment.IsAuthentic)
	s.InDelta(0.12, *found.Assessment.Score, 1e-9)
	s.Equal(false, found.Assessment.Details["isAI"])
}

func (s *PostgresStoreSuite) TestListOrdersByUpload() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)
	second := s.newEvidence("application/pdf", base.Add(time.Second))
	first := s.newEvidence("image/png", base)

	list, err := s.store.ListByComplaint(ctx, s.complaint)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first.ID, list[0].ID)
	s.Equal(second.ID, list[1].ID)
	s.Equal(models.ScoreNotApplicable, list[1].ScoreState)
}

func (s *PostgresStoreSuite) TestMissingRecord() {
	_, err := s.store.FindByID(context.Background(), id.NewEvidenceID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
