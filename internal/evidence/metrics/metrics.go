package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Ingested           prometheus.Counter
	Assessments        *prometheus.CounterVec
	ClassifierDuration *prometheus.HistogramVec
	QueueDepth         prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Ingested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safedesk_evidence_ingested_total",
			Help: "Evidence files accepted and stored",
		}),
		Assessments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safedesk_evidence_assessments_total",
			Help: "Finished authenticity checks by outcome (genuine, flagged, failed, dropped)",
		}, []string{"outcome"}),
		ClassifierDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "safedesk_classifier_duration_seconds",
			Help:    "Latency of calls to the image classifier",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"outcome"}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "safedesk_evidence_queue_depth",
			Help: "Evidence jobs waiting for a classifier worker",
		}),
	}
}

func (m *Metrics) IncrementIngested() {
	if m != nil {
		m.Ingested.Inc()
	}
}

func (m *Metrics) IncrementAssessment(outcome string) {
	if m != nil {
		m.Assessments.WithLabelValues(outcome).Inc()
	}
}

// ObserveClassifier satisfies classifier.Observer.
func (m *Metrics) ObserveClassifier(outcome string, d time.Duration) {
	if m != nil {
		m.ClassifierDuration.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.QueueDepth.Set(float64(n))
	}
}
