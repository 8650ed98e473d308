package middleware

import (
	"log/slog"

	"safedesk/internal/ratelimit/models"
	"safedesk/internal/ratelimit/service"
	"safedesk/internal/ratelimit/store/bucket"
)

// NewFallbackLimiter creates an in-memory limiter with the same budgets as
// the primary, used while the primary store is unavailable.
func NewFallbackLimiter(limits map[models.EndpointClass]models.Limit, logger *slog.Logger) RateLimiter {
	limiter, err := service.New(bucket.New(),
		service.WithLimits(limits),
		service.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to initialize fallback rate limiter", "error", err)
		return nil
	}
	return limiter
}
