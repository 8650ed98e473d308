package models

import (
	"time"

	id "safedesk/pkg/domain"
)

// ListFilter narrows a reviewer's case list. Empty slices match everything.
type ListFilter struct {
	OrganizationID id.OrganizationID
	Statuses       []Status
	Severities     []Severity
}

// Stats summarizes one organization's caseload.
type Stats struct {
	Total             int              `json:"totalComplaints"`
	ByStatus          map[Status]int   `json:"byStatus"`
	BySeverity        map[Severity]int `json:"bySeverity"`
	ResolvedThisMonth int              `json:"resolvedThisMonth"`
	Pending           int              `json:"pendingComplaints"`
}

// NewStats returns zeroed stats with every status and severity present.
func NewStats() *Stats {
	s := &Stats{
		ByStatus:   make(map[Status]int, len(statusOrder)),
		BySeverity: make(map[Severity]int, 3),
	}
	for _, st := range AllStatuses() {
		s.ByStatus[st] = 0
	}
	for _, sev := range AllSeverities() {
		s.BySeverity[sev] = 0
	}
	return s
}

// Add folds one case into the stats. Resolved or Closed cases touched since
// monthStart count toward ResolvedThisMonth.
func (s *Stats) Add(c *Complaint, monthStart time.Time) {
	s.Total++
	s.ByStatus[c.Status]++
	s.BySeverity[c.Severity]++
	if c.Status.IsPending() {
		s.Pending++
	}
	if (c.Status == StatusResolved || c.Status == StatusClosed) && !c.UpdatedAt.Before(monthStart) {
		s.ResolvedThisMonth++
	}
}

// MonthStart returns midnight on the first day of now's month.
func MonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// IsPending reports whether a case still awaits a resolution.
func (s Status) IsPending() bool {
	return s == StatusSubmitted || s == StatusUnderReview || s == StatusInquiry
}
