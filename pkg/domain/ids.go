// Package domain holds identifier types shared across modules.
//
// Each entity gets its own UUID-backed type so that a ComplaintID can never be
// passed where an EvidenceID is expected. Parsing happens once at trust
// boundaries (path params, token claims); everything inward uses typed values.
package domain

import (
	"github.com/google/uuid"

	dErrors "safedesk/pkg/domain-errors"
)

type (
	OrganizationID uuid.UUID
	ReviewerID     uuid.UUID
	ComplaintID    uuid.UUID
	MessageID      uuid.UUID
	EvidenceID     uuid.UUID
	AuditEntryID   uuid.UUID
)

// maxIDLength is the longest textual form uuid.Parse accepts (urn:uuid: prefix).
const maxIDLength = 45

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return u, nil
}

func ParseOrganizationID(s string) (OrganizationID, error) {
	u, err := parseUUID("organization_id", s)
	return OrganizationID(u), err
}

func ParseReviewerID(s string) (ReviewerID, error) {
	u, err := parseUUID("reviewer_id", s)
	return ReviewerID(u), err
}

func ParseComplaintID(s string) (ComplaintID, error) {
	u, err := parseUUID("complaint_id", s)
	return ComplaintID(u), err
}

func (id OrganizationID) String() string { return uuid.UUID(id).String() }
func (id ReviewerID) String() string     { return uuid.UUID(id).String() }
func (id ComplaintID) String() string    { return uuid.UUID(id).String() }
func (id MessageID) String() string      { return uuid.UUID(id).String() }
func (id EvidenceID) String() string     { return uuid.UUID(id).String() }
func (id AuditEntryID) String() string   { return uuid.UUID(id).String() }

func (id OrganizationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ReviewerID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ComplaintID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EvidenceID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

func (id OrganizationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ReviewerID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id ComplaintID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id MessageID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id EvidenceID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *OrganizationID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *ReviewerID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *ComplaintID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *MessageID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *EvidenceID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func NewReviewerID() ReviewerID         { return ReviewerID(uuid.New()) }
func NewComplaintID() ComplaintID       { return ComplaintID(uuid.New()) }
func NewMessageID() MessageID           { return MessageID(uuid.New()) }
func NewEvidenceID() EvidenceID         { return EvidenceID(uuid.New()) }
func NewAuditEntryID() AuditEntryID     { return AuditEntryID(uuid.New()) }
