package models

import (
	"strings"
	"time"

	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
)

// Organization scopes cases and reviewers. Reviewers only ever see cases
// filed against their own organization.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - CreatedAt is immutable after construction
type Organization struct {
	ID        id.OrganizationID `json:"id"`
	Name      string            `json:"name"`
	Domain    string            `json:"domain,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

func NewOrganization(orgID id.OrganizationID, name, domain string, now time.Time) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization name must be 128 characters or less")
	}
	return &Organization{
		ID:        orgID,
		Name:      name,
		Domain:    strings.ToLower(strings.TrimSpace(domain)),
		CreatedAt: now,
	}, nil
}
