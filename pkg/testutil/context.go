package testutil

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	id "safedesk/pkg/domain"
	"safedesk/pkg/requestcontext"
)

// WithReviewer adds an authenticated reviewer session to the request context.
// This simulates what the auth middleware would do after validating a token.
func WithReviewer(req *http.Request, reviewerID id.ReviewerID, orgID id.OrganizationID, role id.Role) *http.Request {
	ctx := requestcontext.WithReviewer(req.Context(), reviewerID, orgID, role)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}

// NewOrganizationID returns a random organization ID. Production code never
// mints organizations; they come from the seed command or the database.
func NewOrganizationID() id.OrganizationID {
	return id.OrganizationID(uuid.New())
}
