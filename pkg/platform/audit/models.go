// Package audit records significant case actions in an append-only log.
//
// Recording is best-effort: Record never blocks or fails the caller, and a
// full buffer or store failure is logged and swallowed. AppendSync is the one
// exception, used where an entry must commit atomically with other writes.
package audit

import (
	"context"
	"time"

	id "safedesk/pkg/domain"
)

// Action is the stable tag stored with every entry.
type Action string

const (
	ActionComplaintSubmitted Action = "COMPLAINT_SUBMITTED"
	ActionStatusUpdated      Action = "STATUS_UPDATED"
	ActionEvidenceFlagged    Action = "EVIDENCE_FLAGGED"
	ActionReviewerLogin      Action = "REVIEWER_LOGIN"
	// ActionMemberAdded is reserved for organization membership changes,
	// which are administered outside this service.
	ActionMemberAdded Action = "MEMBER_ADDED"
)

// Category classifies actions for downstream routing and retention.
type Category string

const (
	// CategoryCompliance covers case lifecycle events that must be retained.
	CategoryCompliance Category = "compliance"
	// CategorySecurity covers sign-ins and suspect evidence.
	CategorySecurity Category = "security"
)

var actionCategories = map[Action]Category{
	ActionComplaintSubmitted: CategoryCompliance,
	ActionStatusUpdated:      CategoryCompliance,
	ActionMemberAdded:        CategoryCompliance,
	ActionEvidenceFlagged:    CategorySecurity,
	ActionReviewerLogin:      CategorySecurity,
}

// Category returns the category for a, defaulting to compliance.
func (a Action) Category() Category {
	if c, ok := actionCategories[a]; ok {
		return c
	}
	return CategoryCompliance
}

// Entry is one audit record. ActorID is empty for anonymous reporters and
// for system-initiated actions; ComplaintID is nil when the action is not
// case-scoped.
type Entry struct {
	ID          id.AuditEntryID
	Action      Action
	ActorID     string
	ComplaintID id.ComplaintID
	Details     map[string]any
	RequestID   string
	Timestamp   time.Time
}

// Store persists entries. Implementations must honor a transaction carried
// in ctx so AppendSync can join an enclosing unit of work.
type Store interface {
	Append(ctx context.Context, entry Entry) error
}
