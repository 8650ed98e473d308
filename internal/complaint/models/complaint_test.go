package models

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"

	"safedesk/internal/identity"
	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/testutil"
)

type ComplaintSuite struct {
	suite.Suite
	now time.Time
}

func TestComplaintSuite(t *testing.T) {
	suite.Run(t, new(ComplaintSuite))
}

func (s *ComplaintSuite) SetupTest() {
	s.now = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
}

func (s *ComplaintSuite) newComplaint() *Complaint {
	c, err := NewComplaint(
		id.NewComplaintID(),
		identity.CaseNumber("SD-2025-0001"),
		testutil.NewOrganizationID(),
		Incident{Type: IncidentVerbalAbuse, Date: "2025-05-19", Location: "Floor 3", Description: "x", AccusedRole: "Manager"},
		"",
		true,
		"$2a$hash",
		s.now,
	)
	s.Require().NoError(err)
	return c
}

func (s *ComplaintSuite) TestNewComplaint() {
	s.Run("starts submitted with medium severity", func() {
		c := s.newComplaint()
		s.Equal(StatusSubmitted, c.Status)
		s.Equal(SeverityMedium, c.Severity)
		s.Equal(s.now, c.CreatedAt)
		s.Equal(s.now, c.UpdatedAt)
	})

	s.Run("rejects missing pin hash", func() {
		_, err := NewComplaint(id.NewComplaintID(), "SD-2025-0001", testutil.NewOrganizationID(),
			Incident{Type: IncidentOther}, SeverityLow, true, "", s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects unknown incident type", func() {
		_, err := NewComplaint(id.NewComplaintID(), "SD-2025-0001", testutil.NewOrganizationID(),
			Incident{Type: "Gossip"}, SeverityLow, true, "hash", s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *ComplaintSuite) TestTransitionPolicies() {
	cases := []struct {
		from, to   Status
		permissive bool
		strict     bool
	}{
		{StatusSubmitted, StatusUnderReview, true, true},
		{StatusSubmitted, StatusSubmitted, true, true},
		{StatusSubmitted, StatusResolved, true, false},
		{StatusInquiry, StatusUnderReview, true, false},
		{StatusResolved, StatusClosed, true, true},
		{StatusClosed, StatusSubmitted, false, false},
		{StatusClosed, StatusClosed, true, true},
		{StatusSubmitted, Status("Archived"), false, false},
	}
	for _, tc := range cases {
		s.Equal(tc.permissive, PermissiveTransitions{}.Allows(tc.from, tc.to), "permissive %s->%s", tc.from, tc.to)
		s.Equal(tc.strict, StrictTransitions{}.Allows(tc.from, tc.to), "strict %s->%s", tc.from, tc.to)
	}
}

func (s *ComplaintSuite) TestApplyUpdate() {
	s.Run("sets provided fields and stamps time", func() {
		c := s.newComplaint()
		status := StatusInquiry
		notes := "called witness"
		later := s.now.Add(time.Hour)

		u := StatusUpdate{Status: &status, InternalNotes: &notes}
		s.Require().NoError(c.CanApply(u, PermissiveTransitions{}))
		c.ApplyUpdate(u, later)

		s.Equal(StatusInquiry, c.Status)
		s.Equal(SeverityMedium, c.Severity)
		s.Equal("called witness", c.InternalNotes)
		s.Equal(later, c.UpdatedAt)
	})

	s.Run("strict mode rejects skips", func() {
		c := s.newComplaint()
		status := StatusClosed
		err := c.CanApply(StatusUpdate{Status: &status}, StrictTransitions{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("severity moves freely", func() {
		c := s.newComplaint()
		for _, sev := range []Severity{SeverityHigh, SeverityLow, SeverityMedium} {
			u := StatusUpdate{Severity: &sev}
			s.Require().NoError(c.CanApply(u, StrictTransitions{}))
			c.ApplyUpdate(u, s.now)
			s.Equal(sev, c.Severity)
		}
	})
}

func (s *ComplaintSuite) TestReporterViewHidesNotes() {
	c := s.newComplaint()
	c.InternalNotes = "private"
	view := c.ReporterView()
	s.Empty(view.InternalNotes)
	s.Equal("private", c.InternalNotes)

	want := *c
	want.InternalNotes = ""
	s.Empty(cmp.Diff(&want, view))
}

func (s *ComplaintSuite) TestStats() {
	monthStart := MonthStart(s.now)
	stats := NewStats()

	open := s.newComplaint()
	resolved := s.newComplaint()
	resolved.Status = StatusResolved
	resolved.Severity = SeverityHigh
	oldClosed := s.newComplaint()
	oldClosed.Status = StatusClosed
	oldClosed.UpdatedAt = monthStart.Add(-time.Hour)

	for _, c := range []*Complaint{open, resolved, oldClosed} {
		stats.Add(c, monthStart)
	}

	s.Equal(3, stats.Total)
	s.Equal(1, stats.Pending)
	s.Equal(1, stats.ResolvedThisMonth)
	s.Equal(1, stats.ByStatus[StatusClosed])
	s.Equal(0, stats.ByStatus[StatusInquiry])
	s.Equal(1, stats.BySeverity[SeverityHigh])
	s.Equal(2, stats.BySeverity[SeverityMedium])
}
