// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them without importing net/http.
//
//	reviewerID := requestcontext.ReviewerID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithReviewer(ctx, reviewerID, orgID, id.RoleCommittee)
package requestcontext

import (
	"context"
	"time"

	id "safedesk/pkg/domain"
)

type (
	reviewerIDKey     struct{}
	organizationIDKey struct{}
	roleKey           struct{}
	clientIPKey       struct{}
	userAgentKey      struct{}
	requestIDKey      struct{}
	requestTimeKey    struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyReviewerID     = reviewerIDKey{}
	ContextKeyOrganizationID = organizationIDKey{}
	ContextKeyRole           = roleKey{}
	ContextKeyClientIP       = clientIPKey{}
	ContextKeyUserAgent      = userAgentKey{}
	ContextKeyRequestID      = requestIDKey{}
	ContextKeyRequestTime    = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Reviewer session
// -----------------------------------------------------------------------------

// ReviewerID retrieves the authenticated reviewer ID from the context.
// Returns the zero value if the caller is not an authenticated reviewer.
func ReviewerID(ctx context.Context) id.ReviewerID {
	if v, ok := ctx.Value(ContextKeyReviewerID).(id.ReviewerID); ok {
		return v
	}
	return id.ReviewerID{}
}

// OrganizationID retrieves the organization the reviewer session is bound to.
func OrganizationID(ctx context.Context) id.OrganizationID {
	if v, ok := ctx.Value(ContextKeyOrganizationID).(id.OrganizationID); ok {
		return v
	}
	return id.OrganizationID{}
}

// Role retrieves the reviewer role from the context.
func Role(ctx context.Context) id.Role {
	if v, ok := ctx.Value(ContextKeyRole).(id.Role); ok {
		return v
	}
	return ""
}

// WithReviewer injects an authenticated reviewer session into the context.
func WithReviewer(ctx context.Context, reviewerID id.ReviewerID, orgID id.OrganizationID, role id.Role) context.Context {
	ctx = context.WithValue(ctx, ContextKeyReviewerID, reviewerID)
	ctx = context.WithValue(ctx, ContextKeyOrganizationID, orgID)
	ctx = context.WithValue(ctx, ContextKeyRole, role)
	return ctx
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts like workers and CLI commands.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Workers use it to keep one timestamp across a write-back; tests use it to pin time.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
