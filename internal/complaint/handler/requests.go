package handler

import (
	"strings"
	"time"

	"safedesk/internal/complaint/models"
	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
)

const (
	maxDescriptionLength = 10000
	maxFieldLength       = 500
	incidentDateLayout   = "2006-01-02"
)

// SubmitRequest is the HTTP request body for POST /complaints.
type SubmitRequest struct {
	OrganizationID    string `json:"organizationId"`
	IncidentType      string `json:"incidentType"`
	IncidentDate      string `json:"incidentDate"`
	IncidentTime      string `json:"incidentTime"`
	Location          string `json:"location"`
	Description       string `json:"description"`
	AccusedRole       string `json:"accusedRole"`
	AccusedDepartment string `json:"accusedDepartment"`
	Witnesses         string `json:"witnesses"`
	IsAnonymous       *bool  `json:"isAnonymous"`
	SeverityLevel     string `json:"severityLevel"`
	ReporterRef       string `json:"reporterRef"`

	parsedOrgID    id.OrganizationID
	parsedType     models.IncidentType
	parsedSeverity models.Severity
}

// Validate checks required fields and parses enums.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if len(r.Description) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description is too long")
	}
	for _, f := range []string{r.Location, r.AccusedRole, r.AccusedDepartment, r.Witnesses, r.ReporterRef} {
		if len(f) > maxFieldLength {
			return dErrors.New(dErrors.CodeValidation, "field exceeds maximum length")
		}
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"organizationId", r.OrganizationID},
		{"incidentType", r.IncidentType},
		{"incidentDate", r.IncidentDate},
		{"location", r.Location},
		{"description", r.Description},
		{"accusedRole", r.AccusedRole},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", "))
	}

	orgID, err := id.ParseOrganizationID(strings.TrimSpace(r.OrganizationID))
	if err != nil {
		return err
	}
	r.parsedOrgID = orgID

	kind, err := models.ParseIncidentType(strings.TrimSpace(r.IncidentType))
	if err != nil {
		return err
	}
	r.parsedType = kind

	if _, err := time.Parse(incidentDateLayout, strings.TrimSpace(r.IncidentDate)); err != nil {
		return dErrors.New(dErrors.CodeValidation, "incidentDate must be YYYY-MM-DD")
	}

	r.parsedSeverity = models.SeverityMedium
	if s := strings.TrimSpace(r.SeverityLevel); s != "" {
		sev, err := models.ParseSeverity(s)
		if err != nil {
			return err
		}
		r.parsedSeverity = sev
	}
	return nil
}

func (r *SubmitRequest) ParsedOrganizationID() id.OrganizationID { return r.parsedOrgID }

func (r *SubmitRequest) ParsedSeverity() models.Severity { return r.parsedSeverity }

// Anonymous defaults to true when the flag is omitted.
func (r *SubmitRequest) Anonymous() bool {
	return r.IsAnonymous == nil || *r.IsAnonymous
}

// Incident returns the unsanitized incident; the service cleans it.
func (r *SubmitRequest) Incident() models.Incident {
	return models.Incident{
		Type:              r.parsedType,
		Date:              r.IncidentDate,
		Time:              r.IncidentTime,
		Location:          r.Location,
		Description:       r.Description,
		AccusedRole:       r.AccusedRole,
		AccusedDepartment: r.AccusedDepartment,
		Witnesses:         r.Witnesses,
	}
}

// VerifyRequest is the HTTP request body for POST /complaints/verify.
type VerifyRequest struct {
	CaseID string `json:"caseId"`
	PIN    string `json:"pin"`
}

func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.CaseID = strings.TrimSpace(r.CaseID)
	r.PIN = strings.TrimSpace(r.PIN)
	if r.CaseID == "" || r.PIN == "" {
		return dErrors.New(dErrors.CodeValidation, "caseId and pin are required")
	}
	if len(r.CaseID) > 32 || len(r.PIN) > 16 {
		return dErrors.New(dErrors.CodeValidation, "caseId or pin is too long")
	}
	return nil
}

// UpdateStatusRequest is the HTTP request body for PATCH /complaints/{ref}/status.
type UpdateStatusRequest struct {
	Status        *string `json:"status"`
	SeverityLevel *string `json:"severityLevel"`
	InternalNotes *string `json:"internalNotes"`

	update models.StatusUpdate
}

func (r *UpdateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Status != nil {
		st, err := models.ParseStatus(strings.TrimSpace(*r.Status))
		if err != nil {
			return err
		}
		r.update.Status = &st
	}
	if r.SeverityLevel != nil {
		sev, err := models.ParseSeverity(strings.TrimSpace(*r.SeverityLevel))
		if err != nil {
			return err
		}
		r.update.Severity = &sev
	}
	if r.InternalNotes != nil {
		if len(*r.InternalNotes) > maxDescriptionLength {
			return dErrors.New(dErrors.CodeValidation, "internalNotes is too long")
		}
		r.update.InternalNotes = r.InternalNotes
	}
	if r.update.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "at least one of status, severityLevel or internalNotes is required")
	}
	return nil
}

func (r *UpdateStatusRequest) ParsedUpdate() models.StatusUpdate { return r.update }

// parseListFilter reads repeated or comma-separated status and severity
// query parameters.
func parseListFilter(orgID id.OrganizationID, query map[string][]string) (models.ListFilter, error) {
	filter := models.ListFilter{OrganizationID: orgID}
	for _, raw := range splitQuery(query["status"]) {
		st, err := models.ParseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	for _, raw := range splitQuery(query["severity"]) {
		sev, err := models.ParseSeverity(raw)
		if err != nil {
			return filter, err
		}
		filter.Severities = append(filter.Severities, sev)
	}
	return filter, nil
}

func splitQuery(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
