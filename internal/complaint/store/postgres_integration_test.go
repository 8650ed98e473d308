//go:build integration

package store_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"safedesk/internal/complaint/models"
	"safedesk/internal/complaint/store"
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
	postgres *containers.PostgresContainer
	store    *store.Postgres
	org      id.OrganizationID
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
	s.Require().NoError(s.postgres.TruncateTables(ctx, "evidence", "messages", "complaints", "organizations"))
	org, err := orgmodels.NewOrganization(testutil.NewOrganizationID(), "Acme", "", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(orgstore.NewPostgres(s.postgres.DB).Save(ctx, org))
	s.org = org.ID
}

func (s *PostgresStoreSuite) newComplaint(seq int) *models.Complaint {
	c, err := models.NewComplaint(id.NewComplaintID(), identity.FormatCaseNumber("SD", 2025, int64(seq)), s.org,
		models.Incident{Type: models.IncidentVerbalAbuse, Date: "2025-05-01", Location: "Floor 3", Description: "d", AccusedRole: "Manager"},
		models.SeverityMedium, true, "hash", time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return c
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	c := s.newComplaint(1)
	c.AccusedDepartment = "Sales"
	s.Require().NoError(s.store.Create(ctx, c))

	found, err := s.store.FindByCaseNumber(ctx, c.CaseNumber)
	s.Require().NoError(err)
	s.Equal(c.ID, found.ID)
	s.Equal("Sales", found.AccusedDepartment)
	s.Equal("hash", found.PINHash)

	s.ErrorIs(s.store.Create(ctx, s.newComplaintWithCase(c.CaseNumber)), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) newComplaintWithCase(cn identity.CaseNumber) *models.Complaint {
	c := s.newComplaint(0)
	c.CaseNumber = cn
	return c
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		s.Require().NoError(s.store.Create(ctx, s.newComplaint(i)))
	}
	list, err := s.store.List(ctx, models.ListFilter{
		OrganizationID: s.org,
		Statuses:       []models.Status{models.StatusSubmitted},
		Severities:     []models.Severity{models.SeverityMedium, models.SeverityHigh},
	})
	s.Require().NoError(err)
	s.Len(list, 3)

	list, err = s.store.List(ctx, models.ListFilter{OrganizationID: s.org, Statuses: []models.Status{models.StatusClosed}})
	s.Require().NoError(err)
	s.Empty(list)
}

// TestConcurrentExecute verifies row locking serializes read-modify-write.
func (s *PostgresStoreSuite) TestConcurrentExecute() {
	ctx := context.Background()
	c := s.newComplaint(1)
	s.Require().NoError(s.store.Create(ctx, c))

	const goroutines = 20
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, c.ID,
				func(*models.Complaint) error { return nil },
				func(c *models.Complaint) { c.InternalNotes += fmt.Sprintf("%d;", i%10) })
			if err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load())
	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Len(found.InternalNotes, goroutines*2)
}

func (s *PostgresStoreSuite) TestStats() {
	ctx := context.Background()
	for i := 1; i <= 2; i++ {
		s.Require().NoError(s.store.Create(ctx, s.newComplaint(i)))
	}
	stats, err := s.store.Stats(ctx, s.org, models.MonthStart(time.Now()))
	s.Require().NoError(err)
	s.Equal(2, stats.Total)
	s.Equal(2, stats.Pending)
	s.Equal(2, stats.BySeverity[models.SeverityMedium])
}
