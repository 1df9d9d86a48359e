package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the credential lifecycle.
type Metrics struct {
	Created        prometheus.Counter
	Revoked        prometheus.Counter
	Verifications  *prometheus.CounterVec
	VerifyDuration prometheus.Histogram
	TouchFailures  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Created: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustplane_credentials_created_total",
			Help: "Total number of API keys issued",
		}),
		Revoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustplane_credentials_revoked_total",
			Help: "Total number of active-to-revoked transitions",
		}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustplane_credential_verifications_total",
			Help: "API key verifications by result",
		}, []string{"result"}),
		VerifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustplane_credential_verify_duration_seconds",
			Help:    "Duration of API key verification (request critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		TouchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustplane_credential_touch_failures_total",
			Help: "Best-effort lastUsedAt writes that failed",
		}),
	}
}

func (m *Metrics) ObserveVerify(start time.Time, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.Verifications.WithLabelValues(result).Inc()
	m.VerifyDuration.Observe(time.Since(start).Seconds())
}
