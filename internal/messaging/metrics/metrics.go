package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	MessagesPosted *prometheus.CounterVec
	Denied         *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		MessagesPosted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safedesk_messages_posted_total",
			Help: "Messages appended to case conversations by sender role",
		}, []string{"sender_role"}),
		Denied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safedesk_message_access_denied_total",
			Help: "Rejected message reads and writes by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncrementPosted(role string) {
	if m != nil {
		m.MessagesPosted.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) IncrementDenied(reason string) {
	if m != nil {
		m.Denied.WithLabelValues(reason).Inc()
	}
}
