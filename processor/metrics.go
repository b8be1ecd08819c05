package processor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "docworker"

type metrics struct {
	documents       *prometheus.CounterVec
	batches         prometheus.Counter
	documentSeconds prometheus.Histogram
	generalFailures prometheus.Counter
	replayMismatch  prometheus.Counter
	healthy         prometheus.Gauge
}

// newMetrics registers with reg, which may be nil.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		documents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_total",
			Help:      "Documents processed, by outcome and result queue.",
		}, []string{"outcome", "queue"}),
		batches: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batches_total",
			Help:      "Batches processed.",
		}),
		documentSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "document_duration_seconds",
			Help:      "Time spent in the worker per document.",
			Buckets:   prometheus.DefBuckets,
		}),
		generalFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "general_failures_total",
			Help:      "Unexpected worker errors recorded as document failures.",
		}),
		replayMismatch: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "replay_mismatches_total",
			Help:      "Recorded change logs which did not replay to the processed document.",
		}),
		healthy: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "healthy",
			Help:      "1 if the last health check passed.",
		}),
	}
}

func (m *metrics) observe(r *Response) {
	m.documents.WithLabelValues(r.Outcome.String(), r.Queue).Inc()
}
