package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"safedesk/internal/platform/config"
	"safedesk/internal/ratelimit/metrics"
	"safedesk/internal/ratelimit/models"
	"safedesk/pkg/requestcontext"
)

// BucketStore records requests against a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// Limiter applies the per-class budget to client IPs.
type Limiter struct {
	buckets BucketStore
	limits  map[models.EndpointClass]models.Limit
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

// WithLimit overrides the budget of one class.
func WithLimit(class models.EndpointClass, limit models.Limit) Option {
	return func(l *Limiter) {
		l.limits[class] = limit
	}
}

// WithLimits replaces the budget of every class listed in limits.
func WithLimits(limits map[models.EndpointClass]models.Limit) Option {
	return func(l *Limiter) {
		for class, limit := range limits {
			l.limits[class] = limit
		}
	}
}

// DefaultLimits returns the stock budget for every endpoint class.
func DefaultLimits() map[models.EndpointClass]models.Limit {
	return map[models.EndpointClass]models.Limit{
		models.ClassSubmit:   {RequestsPerWindow: 5, Window: 15 * time.Minute},
		models.ClassVerify:   {RequestsPerWindow: 10, Window: time.Minute},
		models.ClassEvidence: {RequestsPerWindow: 20, Window: time.Minute},
		models.ClassLogin:    {RequestsPerWindow: 10, Window: time.Minute},
		models.ClassImprove:  {RequestsPerWindow: 10, Window: time.Minute},
		models.ClassGuidance: {RequestsPerWindow: 20, Window: time.Minute},
		models.ClassSOS:      {RequestsPerWindow: 5, Window: time.Minute},
		models.ClassMessages: {RequestsPerWindow: 30, Window: time.Minute},
	}
}

// LimitsFromConfig maps process configuration onto class budgets.
// Zero values keep the defaults.
func LimitsFromConfig(cfg *config.Config) map[models.EndpointClass]models.Limit {
	limits := DefaultLimits()
	set := func(class models.EndpointClass, n int, window time.Duration) {
		if n > 0 && window > 0 {
			limits[class] = models.Limit{RequestsPerWindow: n, Window: window}
		}
	}
	set(models.ClassSubmit, cfg.Case.SubmissionsPerWindow, cfg.Case.SubmissionWindow)
	set(models.ClassEvidence, cfg.Evidence.UploadsPerMinute, time.Minute)
	set(models.ClassVerify, cfg.RateLimit.LoginPerMinute, time.Minute)
	set(models.ClassLogin, cfg.RateLimit.LoginPerMinute, time.Minute)
	set(models.ClassImprove, cfg.RateLimit.ImprovePerMinute, time.Minute)
	set(models.ClassGuidance, cfg.RateLimit.GuidancePerMinute, time.Minute)
	set(models.ClassSOS, cfg.RateLimit.SOSPerMinute, time.Minute)
	set(models.ClassMessages, cfg.RateLimit.MessagesPerMinute, time.Minute)
	return limits
}

func New(buckets BucketStore, opts ...Option) (*Limiter, error) {
	if buckets == nil {
		return nil, errors.New("buckets store is required")
	}
	l := &Limiter{
		buckets: buckets,
		limits:  DefaultLimits(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// CheckIP records one request from ip against class.
// A class without a configured budget is denied.
func (l *Limiter) CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.RateLimitResult, error) {
	limit, ok := l.limits[class]
	if !ok {
		l.logger.WarnContext(ctx, "rate limit config missing", "endpoint_class", class)
		now := requestcontext.Now(ctx)
		return models.Denied(0, now, now.Add(time.Minute)), nil
	}

	result, err := l.buckets.Allow(ctx, models.NewIPRateLimitKey(class, ip), limit.RequestsPerWindow, limit.Window)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		l.metrics.IncrementRejection(class)
		l.logger.InfoContext(ctx, "rate limit exceeded",
			"endpoint_class", class,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return result, nil
}

// Limit reports the budget configured for class.
func (l *Limiter) Limit(class models.EndpointClass) (models.Limit, bool) {
	limit, ok := l.limits[class]
	return limit, ok
}
