package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"safedesk/internal/ratelimit/models"
)

type Metrics struct {
	Rejections     *prometheus.CounterVec
	LimiterErrors  prometheus.Counter
	DegradedChecks prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safedesk_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter, by endpoint class",
		}, []string{"class"}),
		LimiterErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safedesk_rate_limit_errors_total",
			Help: "Rate limit checks that failed against the primary store",
		}),
		DegradedChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safedesk_rate_limit_degraded_checks_total",
			Help: "Rate limit checks answered by the in-memory fallback",
		}),
	}
}

func (m *Metrics) IncrementRejection(class models.EndpointClass) {
	if m != nil {
		m.Rejections.WithLabelValues(string(class)).Inc()
	}
}

func (m *Metrics) IncrementLimiterErrors() {
	if m != nil {
		m.LimiterErrors.Inc()
	}
}

func (m *Metrics) IncrementDegradedChecks() {
	if m != nil {
		m.DegradedChecks.Inc()
	}
}
