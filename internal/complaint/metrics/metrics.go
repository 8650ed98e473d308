package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the case lifecycle.
type Metrics struct {
	CasesSubmitted      prometheus.Counter
	StatusTransitions   *prometheus.CounterVec
	VerificationResults *prometheus.CounterVec
}

// New creates and registers the complaint metrics.
func New() *Metrics {
	return &Metrics{
		CasesSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safedesk_cases_submitted_total",
			Help: "Total number of cases filed",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safedesk_case_status_transitions_total",
			Help: "Reviewer status updates by resulting status",
		}, []string{"status"}),
		VerificationResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safedesk_case_verifications_total",
			Help: "Case ID + PIN verification attempts by outcome",
		}, []string{"outcome"}), // outcome: "ok", "failed"
	}
}

func (m *Metrics) IncrementSubmitted() {
	if m != nil {
		m.CasesSubmitted.Inc()
	}
}

func (m *Metrics) IncrementTransition(status string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementVerification(ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "ok"
	}
	m.VerificationResults.WithLabelValues(outcome).Inc()
}
