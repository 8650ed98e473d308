package models

import (
	dErrors "safedesk/pkg/domain-errors"
)

// Status is the case lifecycle state. The canonical order is
// Submitted → Under Review → Inquiry → Resolved → Closed.
type Status string

const (
	StatusSubmitted   Status = "Submitted"
	StatusUnderReview Status = "Under Review"
	StatusInquiry     Status = "Inquiry"
	StatusResolved    Status = "Resolved"
	StatusClosed      Status = "Closed"
)

var statusOrder = map[Status]int{
	StatusSubmitted:   0,
	StatusUnderReview: 1,
	StatusInquiry:     2,
	StatusResolved:    3,
	StatusClosed:      4,
}

// AllStatuses lists statuses in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusSubmitted, StatusUnderReview, StatusInquiry, StatusResolved, StatusClosed}
}

func (s Status) IsValid() bool {
	_, ok := statusOrder[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusClosed
}

func (s Status) String() string { return string(s) }

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "status must be one of Submitted, Under Review, Inquiry, Resolved, Closed")
	}
	return st, nil
}

// TransitionPolicy decides which status changes a reviewer may apply.
type TransitionPolicy interface {
	Allows(from, to Status) bool
}

// PermissiveTransitions allows any status to be set directly, except that
// nothing leaves Closed.
type PermissiveTransitions struct{}

func (PermissiveTransitions) Allows(from, to Status) bool {
	if !to.IsValid() {
		return false
	}
	if from.IsTerminal() {
		return to == from
	}
	return true
}

// StrictTransitions allows staying put or advancing exactly one step.
type StrictTransitions struct{}

func (StrictTransitions) Allows(from, to Status) bool {
	fromRank, okFrom := statusOrder[from]
	toRank, okTo := statusOrder[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank == fromRank || toRank == fromRank+1
}

// Severity is the reviewer-assessed impact. It has no ordering constraint.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

func AllSeverities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh}
}

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

func (s Severity) String() string { return string(s) }

func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "severityLevel must be one of Low, Medium, High")
	}
	return sev, nil
}

// IncidentType classifies the reported behavior.
type IncidentType string

const (
	IncidentSexualHarassment   IncidentType = "Sexual Harassment"
	IncidentVerbalAbuse        IncidentType = "Verbal Abuse"
	IncidentPhysicalHarassment IncidentType = "Physical Harassment"
	IncidentCyberHarassment    IncidentType = "Cyber Harassment"
	IncidentDiscrimination     IncidentType = "Discrimination"
	IncidentHostileWorkplace   IncidentType = "Hostile Work Environment"
	IncidentRetaliation        IncidentType = "Retaliation"
	IncidentOther              IncidentType = "Other"
)

func (t IncidentType) IsValid() bool {
	switch t {
	case IncidentSexualHarassment, IncidentVerbalAbuse, IncidentPhysicalHarassment,
		IncidentCyberHarassment, IncidentDiscrimination, IncidentHostileWorkplace,
		IncidentRetaliation, IncidentOther:
		return true
	}
	return false
}

func ParseIncidentType(s string) (IncidentType, error) {
	t := IncidentType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "incidentType is not a recognized incident type")
	}
	return t, nil
}
