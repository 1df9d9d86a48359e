package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit recording. Sink outages show up
// here and in the logs; the publisher itself never retries.
type Metrics struct {
	Recorded        *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	Dropped         prometheus.Counter
	Rejected        prometheus.Counter
	PersistDuration prometheus.Histogram
}

// NewMetrics registers audit metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Recorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustplane_audit_recorded_total",
			Help: "Audit events persisted to the sink, by category",
		}, []string{"category"}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustplane_audit_persist_failures_total",
			Help: "Audit events the sink failed to persist, by category",
		}, []string{"category"}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustplane_audit_dropped_total",
			Help: "Audit events dropped because the async buffer was full",
		}),
		Rejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustplane_audit_rejected_total",
			Help: "Audit events rejected by validation",
		}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustplane_audit_persist_duration_seconds",
			Help:    "Latency of audit sink appends",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}
