// Package httpapi assembles the public and reviewer HTTP surface.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	alerthandler "safedesk/internal/alert/handler"
	assisthandler "safedesk/internal/assist/handler"
	authhandler "safedesk/internal/auth/handler"
	complainthandler "safedesk/internal/complaint/handler"
	evidencehandler "safedesk/internal/evidence/handler"
	messaginghandler "safedesk/internal/messaging/handler"
	"safedesk/internal/platform/metrics"
	rlmodels "safedesk/internal/ratelimit/models"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/httputil"
	"safedesk/pkg/platform/middleware/admin"
	authmw "safedesk/pkg/platform/middleware/auth"
	"safedesk/pkg/platform/middleware/metadata"
	"safedesk/pkg/platform/middleware/request"
	"safedesk/pkg/platform/middleware/requesttime"
	"safedesk/pkg/requestcontext"
)

// RateLimiter produces per-class limiting middleware.
type RateLimiter interface {
	RateLimit(class rlmodels.EndpointClass) func(http.Handler) http.Handler
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	Complaints *complainthandler.Handler
	Messages   *messaginghandler.Handler
	Evidence   *evidencehandler.Handler
	Auth       *authhandler.Handler
	Assist     *assisthandler.Handler
	Alert      *alerthandler.Handler
}

type Deps struct {
	Logger         *slog.Logger
	Tokens         authmw.TokenValidator
	RateLimiter    RateLimiter
	Metrics        *metrics.Metrics
	AdminToken     string
	RequestTimeout time.Duration
	HealthChecks   map[string]HealthCheck
	// Uploads serves locally stored evidence under /uploads; nil when blobs
	// live in object storage.
	Uploads http.Handler
}

// NewRouter mounts every endpoint under /api plus the operator /metrics endpoint.
func NewRouter(h Handlers, d Deps) http.Handler {
	logger := d.Logger
	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.With(admin.RequireAdminToken(d.AdminToken, logger)).Handle("/metrics", metrics.Handler())

	if d.Uploads != nil {
		r.Handle("/uploads/*", d.Uploads)
	}

	r.Route("/api", func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(request.Timeout(d.RequestTimeout))
		}

		r.Get("/health", handleHealth(d.HealthChecks))

		// anonymous reporter surface
		r.With(d.RateLimiter.RateLimit(rlmodels.ClassSubmit)).Group(h.Complaints.RegisterSubmit)
		r.With(d.RateLimiter.RateLimit(rlmodels.ClassVerify)).Group(h.Complaints.RegisterPublic)
		r.With(d.RateLimiter.RateLimit(rlmodels.ClassEvidence)).Group(h.Evidence.RegisterPublic)
		r.With(d.RateLimiter.RateLimit(rlmodels.ClassImprove)).Group(h.Assist.RegisterImprove)
		r.With(d.RateLimiter.RateLimit(rlmodels.ClassGuidance)).Group(h.Assist.RegisterGuidance)
		r.With(d.RateLimiter.RateLimit(rlmodels.ClassSOS)).Group(h.Alert.Register)
		r.With(d.RateLimiter.RateLimit(rlmodels.ClassLogin)).Group(h.Auth.RegisterPublic)

		// reached with either a case PIN or a reviewer session; PIN callers
		// are budgeted since every request is a PIN guess
		r.With(
			authmw.OptionalReviewer(d.Tokens, logger),
			anonymousOnly(d.RateLimiter.RateLimit(rlmodels.ClassMessages)),
		).Group(h.Messages.Register)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireReviewer(d.Tokens, logger))
			h.Complaints.RegisterReviewer(r)
			h.Evidence.RegisterReviewer(r)
			h.Auth.RegisterReviewer(r)

			r.With(authmw.RequireRole(logger, id.RoleAdmin)).Group(h.Complaints.RegisterAdmin)
		})
	})

	return r
}

// anonymousOnly applies limit to requests that carry no reviewer session.
func anonymousOnly(limit func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requestcontext.ReviewerID(r.Context()).IsNil() {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
