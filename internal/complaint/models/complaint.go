package models

import (
	"time"

	"safedesk/internal/identity"
	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
)

// Incident holds the reporter's account. All free text is sanitized before
// it reaches the aggregate.
type Incident struct {
	Type              IncidentType `json:"incidentType"`
	Date              string       `json:"incidentDate"`
	Time              string       `json:"incidentTime,omitempty"`
	Location          string       `json:"location"`
	Description       string       `json:"description"`
	AccusedRole       string       `json:"accusedRole"`
	AccusedDepartment string       `json:"accusedDepartment,omitempty"`
	Witnesses         string       `json:"witnesses,omitempty"`
}

// Complaint is the aggregate root for one filed case.
//
// Invariants:
//   - CaseNumber is unique and never changes after creation
//   - PINHash is set once at creation and never serialized
//   - Status and Severity always hold valid enum values
//   - Closed is terminal: no policy lets a case leave it
//   - InternalNotes are reviewer-only and never shown to the reporter
type Complaint struct {
	ID             id.ComplaintID      `json:"id"`
	CaseNumber     identity.CaseNumber `json:"caseId"`
	OrganizationID id.OrganizationID   `json:"organizationId"`
	IsAnonymous    bool                `json:"isAnonymous"`
	ReporterRef    string              `json:"reporterRef,omitempty"`
	Incident
	Status        Status    `json:"status"`
	Severity      Severity  `json:"severityLevel"`
	InternalNotes string    `json:"internalNotes,omitempty"`
	PINHash       string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewComplaint builds a freshly submitted case.
func NewComplaint(
	complaintID id.ComplaintID,
	caseNumber identity.CaseNumber,
	orgID id.OrganizationID,
	incident Incident,
	severity Severity,
	isAnonymous bool,
	pinHash string,
	now time.Time,
) (*Complaint, error) {
	if complaintID.IsNil() || orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "complaint and organization ids are required")
	}
	if caseNumber == "" || pinHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "case number and pin hash are required")
	}
	if !incident.Type.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid incident type")
	}
	if severity == "" {
		severity = SeverityMedium
	}
	if !severity.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid severity")
	}
	return &Complaint{
		ID:             complaintID,
		CaseNumber:     caseNumber,
		OrganizationID: orgID,
		IsAnonymous:    isAnonymous,
		Incident:       incident,
		Status:         StatusSubmitted,
		Severity:       severity,
		PINHash:        pinHash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (c *Complaint) IsClosed() bool {
	return c.Status.IsTerminal()
}

// StatusUpdate is a reviewer's partial update. Nil fields are left alone.
type StatusUpdate struct {
	Status        *Status
	Severity      *Severity
	InternalNotes *string
}

func (u StatusUpdate) IsEmpty() bool {
	return u.Status == nil && u.Severity == nil && u.InternalNotes == nil
}

// CanApply checks an update against policy without mutating.
// Use with ApplyUpdate in Execute callbacks.
func (c *Complaint) CanApply(u StatusUpdate, policy TransitionPolicy) error {
	if u.Status != nil && !policy.Allows(c.Status, *u.Status) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"cannot move case from "+c.Status.String()+" to "+u.Status.String())
	}
	if u.Severity != nil && !u.Severity.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid severity")
	}
	return nil
}

// ApplyUpdate writes the update and stamps UpdatedAt. Call CanApply first.
func (c *Complaint) ApplyUpdate(u StatusUpdate, now time.Time) {
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.Severity != nil {
		c.Severity = *u.Severity
	}
	if u.InternalNotes != nil {
		c.InternalNotes = *u.InternalNotes
	}
	c.UpdatedAt = now
}

// ReporterView strips reviewer-only fields before the case is shown to the
// anonymous reporter.
func (c *Complaint) ReporterView() *Complaint {
	clone := *c
	clone.InternalNotes = ""
	return &clone
}
