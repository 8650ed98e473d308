package models

import (
	"strings"
	"time"

	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
)

// SenderRole is the side of the conversation a message came from.
type SenderRole string

const (
	SenderReporter SenderRole = "reporter"
	SenderReviewer SenderRole = "reviewer"
)

// legacyRoles maps older client role tags onto the current ones.
var legacyRoles = map[string]SenderRole{
	"employee": SenderReporter,
	"icc":      SenderReviewer,
}

func (r SenderRole) IsValid() bool {
	return r == SenderReporter || r == SenderReviewer
}

func (r SenderRole) String() string { return string(r) }

// ParseSenderRole accepts reporter/reviewer and the legacy employee/icc tags.
func ParseSenderRole(s string) (SenderRole, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if r := SenderRole(s); r.IsValid() {
		return r, nil
	}
	if r, ok := legacyRoles[s]; ok {
		return r, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "senderRole must be reporter or reviewer")
}

// Message is one append-only entry in a case conversation. IsRead is carried
// for client compatibility; nothing sets it.
type Message struct {
	ID          id.MessageID   `json:"id"`
	ComplaintID id.ComplaintID `json:"complaintId"`
	SenderRole  SenderRole     `json:"senderRole"`
	Body        string         `json:"message"`
	IsRead      bool           `json:"isRead"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func NewMessage(messageID id.MessageID, complaintID id.ComplaintID, role SenderRole, body string, now time.Time) (*Message, error) {
	if complaintID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "complaint id is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid sender role")
	}
	if body == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "message body is required")
	}
	return &Message{
		ID:          messageID,
		ComplaintID: complaintID,
		SenderRole:  role,
		Body:        body,
		CreatedAt:   now,
	}, nil
}
