//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	complaintmodels "safedesk/internal/complaint/models"
	complaintstore "safedesk/internal/complaint/store"
	"safedesk/internal/identity"
	"safedesk/internal/messaging/models"
	"safedesk/internal/messaging/store"
	orgmodels "safedesk/internal/organization/models"
	orgstore "safedesk/internal/organization/store"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/tx"
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

func (s *PostgresStoreSuite) TestSameTimestampKeepsInsertOrder() {
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Microsecond)
	for i := range 5 {
		msg, err := models.NewMessage(id.NewMessageID(), s.complaint, models.SenderReporter, fmt.Sprintf("m%d", i), at)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Append(ctx, msg))
	}

	msgs, err := s.store.ListByComplaint(ctx, s.complaint)
	s.Require().NoError(err)
	s.Require().Len(msgs, 5)
	for i, m := range msgs {
		s.Equal(fmt.Sprintf("m%d", i), m.Body)
		s.Equal(at, m.CreatedAt.UTC())
	}
}

func (s *PostgresStoreSuite) TestAppendRollsBackWithTransaction() {
	ctx := context.Background()
	runner := tx.NewSQLRunner(s.postgres.DB)

	err := runner.RunInTx(ctx, func(txCtx context.Context) error {
		msg, err := models.NewMessage(id.NewMessageID(), s.complaint, models.SenderReviewer, "notice", time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.store.Append(txCtx, msg))
		return fmt.Errorf("abort")
	})
	s.Require().Error(err)

	msgs, err := s.store.ListByComplaint(ctx, s.complaint)
	s.Require().NoError(err)
	s.Empty(msgs)
}
