package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for risk evaluations.
type Metrics struct {
	// Decisions by action and tier
	Decisions *prometheus.CounterVec

	// Distribution of clamped scores
	Scores prometheus.Histogram

	// Signal load plus scoring
	EvaluateLatency prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustplane_risk_decisions_total",
			Help: "Risk decisions by action and tier",
		}, []string{"action", "tier"}),

		Scores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustplane_risk_score",
			Help:    "Distribution of risk scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustplane_risk_evaluate_duration_seconds",
			Help:    "Duration of risk evaluation including the signal read",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveDecision records one scored transaction.
func (m *Metrics) ObserveDecision(action, tier string, score int) {
	if m != nil {
		m.Decisions.WithLabelValues(action, tier).Inc()
		m.Scores.Observe(float64(score))
	}
}

func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
