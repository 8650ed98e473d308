package models

import (
	"net/mail"
	"strings"
	"time"

	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
)

// Reviewer is a portal account belonging to exactly one organization.
type Reviewer struct {
	ID             id.ReviewerID
	OrganizationID id.OrganizationID
	Email          string
	DisplayName    string
	Role           id.Role
	PasswordHash   string
	CreatedAt      time.Time
	LastLoginAt    *time.Time
}

func NewReviewer(
	reviewerID id.ReviewerID,
	orgID id.OrganizationID,
	email, displayName string,
	role id.Role,
	passwordHash string,
	now time.Time,
) (*Reviewer, error) {
	if reviewerID.IsNil() || orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "reviewer and organization ids are required")
	}
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid reviewer role")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email
	}
	return &Reviewer{
		ID:             reviewerID,
		OrganizationID: orgID,
		Email:          email,
		DisplayName:    displayName,
		Role:           role,
		PasswordHash:   passwordHash,
		CreatedAt:      now,
	}, nil
}

// NormalizeEmail is the lookup form of an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile is the reviewer as returned to the portal.
type Profile struct {
	ID             id.ReviewerID     `json:"id"`
	Email          string            `json:"email"`
	Role           id.Role           `json:"role"`
	OrganizationID id.OrganizationID `json:"organizationId"`
	DisplayName    string            `json:"displayName"`
}

func (r *Reviewer) Profile() Profile {
	return Profile{
		ID:             r.ID,
		Email:          r.Email,
		Role:           r.Role,
		OrganizationID: r.OrganizationID,
		DisplayName:    r.DisplayName,
	}
}
