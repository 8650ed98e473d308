package service

import (
	"context"
	"errors"
	"strings"

	"safedesk/internal/complaint/models"
	"safedesk/internal/identity"
	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/platform/audit"
	"safedesk/pkg/platform/sanitize"
	"safedesk/pkg/platform/sentinel"
	"safedesk/pkg/requestcontext"
)

// maxIssueAttempts bounds retries when a freshly issued case number collides
// with an existing row (e.g. a Redis counter reset behind a Postgres table).
const maxIssueAttempts = 3

var errVerificationFailed = dErrors.New(dErrors.CodeUnauthorized, "verification failed")

// SubmitCommand carries a new report. Text fields are sanitized by Submit.
type SubmitCommand struct {
	OrganizationID id.OrganizationID
	Incident       models.Incident
	Severity       models.Severity
	IsAnonymous    bool
	ReporterRef    string
}

// SubmitResult is shown to the reporter exactly once. PIN is plaintext.
type SubmitResult struct {
	ComplaintID id.ComplaintID
	CaseNumber  identity.CaseNumber
	PIN         string
}

// Submit files a new case and issues its case number and PIN.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error) {
	if s.orgs != nil {
		if _, err := s.orgs.FindByID(ctx, cmd.OrganizationID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeValidation, "organization does not exist")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
		}
	}

	incident := sanitizeIncident(cmd.Incident)
	if incident.Description == "" || incident.Location == "" || incident.AccusedRole == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "description, location and accusedRole must contain text")
	}

	now := requestcontext.Now(ctx)
	var (
		complaint *models.Complaint
		issued    *identity.Issued
	)
	for attempt := 1; ; attempt++ {
		var err error
		issued, err = s.issuer.Issue(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue case identity")
		}
		complaint, err = models.NewComplaint(id.NewComplaintID(), issued.CaseNumber, cmd.OrganizationID,
			incident, cmd.Severity, cmd.IsAnonymous, issued.PINHash, now)
		if err != nil {
			return nil, err
		}
		complaint.ReporterRef = sanitize.Text(cmd.ReporterRef)

		err = s.store.Create(ctx, complaint)
		if err == nil {
			break
		}
		if errors.Is(err, sentinel.ErrConflict) && attempt < maxIssueAttempts {
			s.logger.WarnContext(ctx, "case number collision, reissuing",
				"request_id", requestcontext.RequestID(ctx),
				"case_id", issued.CaseNumber,
				"attempt", attempt,
			)
			continue
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save complaint")
	}

	s.record(ctx, audit.Entry{
		Action:      audit.ActionComplaintSubmitted,
		ComplaintID: complaint.ID,
		Details: map[string]any{
			"caseId":      complaint.CaseNumber.String(),
			"isAnonymous": complaint.IsAnonymous,
		},
	})
	s.metrics.IncrementSubmitted()
	s.logger.InfoContext(ctx, "complaint submitted",
		"request_id", requestcontext.RequestID(ctx),
		"complaint_id", complaint.ID,
		"organization_id", complaint.OrganizationID,
	)

	return &SubmitResult{
		ComplaintID: complaint.ID,
		CaseNumber:  complaint.CaseNumber,
		PIN:         issued.PIN,
	}, nil
}

// Verify returns the reporter's view of a case when pin matches. Every
// failure mode yields the same unauthorized error.
func (s *Service) Verify(ctx context.Context, caseNumber, pin string) (*models.Complaint, error) {
	cn, err := identity.ParseCaseNumber(caseNumber)
	if err != nil {
		s.issuer.VerifyAbsent(pin)
		s.metrics.IncrementVerification(false)
		return nil, errVerificationFailed
	}
	complaint, err := s.store.FindByCaseNumber(ctx, cn)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.issuer.VerifyAbsent(pin)
			s.metrics.IncrementVerification(false)
			return nil, errVerificationFailed
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load complaint")
	}
	if !s.issuer.Verify(complaint.PINHash, pin) {
		s.metrics.IncrementVerification(false)
		return nil, errVerificationFailed
	}
	s.metrics.IncrementVerification(true)
	return complaint.ReporterView(), nil
}

// CheckPIN reports whether pin unlocks complaint.
func (s *Service) CheckPIN(complaint *models.Complaint, pin string) bool {
	return s.issuer.Verify(complaint.PINHash, pin)
}

// CheckAbsentPIN spends a dummy comparison for a case that could not be found.
func (s *Service) CheckAbsentPIN(pin string) {
	s.issuer.VerifyAbsent(pin)
}

// Resolve loads a case by internal UUID or by case number.
func (s *Service) Resolve(ctx context.Context, ref string) (*models.Complaint, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "case reference is required")
	}

	var (
		complaint *models.Complaint
		err       error
	)
	if complaintID, parseErr := id.ParseComplaintID(ref); parseErr == nil {
		complaint, err = s.store.FindByID(ctx, complaintID)
	} else if cn, parseErr := identity.ParseCaseNumber(ref); parseErr == nil {
		complaint, err = s.store.FindByCaseNumber(ctx, cn)
	} else {
		return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	if err != nil {
		return nil, wrapComplaintErr(err, "failed to load complaint")
	}
	return complaint, nil
}

// Get returns a case for a reviewer of orgID. Other organizations' cases
// are reported as missing.
func (s *Service) Get(ctx context.Context, ref string, orgID id.OrganizationID) (*models.Complaint, error) {
	complaint, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if complaint.OrganizationID != orgID {
		return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	return complaint, nil
}

// List returns the organization's cases, newest first.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.Complaint, error) {
	if filter.OrganizationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "reviewer has no organization")
	}
	complaints, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list complaints")
	}
	return complaints, nil
}

// UpdateStatus applies a reviewer's partial update under the store lock.
func (s *Service) UpdateStatus(ctx context.Context, ref string, orgID id.OrganizationID, actor id.ReviewerID, update models.StatusUpdate) (*models.Complaint, error) {
	if update.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one of status, severityLevel or internalNotes is required")
	}
	if update.InternalNotes != nil {
		notes := sanitize.Text(*update.InternalNotes)
		update.InternalNotes = &notes
	}

	target, err := s.Get(ctx, ref, orgID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, target.ID,
		func(c *models.Complaint) error {
			if c.OrganizationID != orgID {
				return dErrors.New(dErrors.CodeNotFound, "case not found")
			}
			if err := c.CanApply(update, s.policy); err != nil {
				if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
					return dErrors.Wrap(err, dErrors.CodeConflict, err.Error())
				}
				return err
			}
			return nil
		},
		func(c *models.Complaint) {
			c.ApplyUpdate(update, now)
		},
	)
	if err != nil {
		return nil, wrapComplaintErr(err, "failed to update complaint")
	}

	s.record(ctx, audit.Entry{
		Action:      audit.ActionStatusUpdated,
		ActorID:     actor.String(),
		ComplaintID: updated.ID,
		Details: map[string]any{
			"status":        updated.Status.String(),
			"severityLevel": updated.Severity.String(),
		},
	})
	s.metrics.IncrementTransition(updated.Status.String())
	return updated, nil
}

// Stats summarizes the organization's caseload as of the request time.
func (s *Service) Stats(ctx context.Context, orgID id.OrganizationID) (*models.Stats, error) {
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "reviewer has no organization")
	}
	stats, err := s.store.Stats(ctx, orgID, models.MonthStart(requestcontext.Now(ctx)))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute statistics")
	}
	return stats, nil
}

func sanitizeIncident(in models.Incident) models.Incident {
	return models.Incident{
		Type:              in.Type,
		Date:              sanitize.Text(in.Date),
		Time:              sanitize.Text(in.Time),
		Location:          sanitize.Text(in.Location),
		Description:       sanitize.Text(in.Description),
		AccusedRole:       sanitize.Text(in.AccusedRole),
		AccusedDepartment: sanitize.Text(in.AccusedDepartment),
		Witnesses:         sanitize.Text(in.Witnesses),
	}
}

func wrapComplaintErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}
