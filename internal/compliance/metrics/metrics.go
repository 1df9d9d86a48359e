package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for data-subject requests.
type Metrics struct {
	Exports        prometheus.Counter
	Erasures       *prometheus.CounterVec
	ConsentUpdates prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Exports: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustplane_compliance_exports_total",
			Help: "Subject data exports served",
		}),
		Erasures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustplane_compliance_erasures_total",
			Help: "Subject erasures by mode",
		}, []string{"mode"}),
		ConsentUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustplane_compliance_consent_updates_total",
			Help: "Consent preference updates",
		}),
	}
}

func (m *Metrics) IncExport() {
	if m != nil {
		m.Exports.Inc()
	}
}

func (m *Metrics) IncErasure(mode string) {
	if m != nil {
		m.Erasures.WithLabelValues(mode).Inc()
	}
}

func (m *Metrics) IncConsentUpdate() {
	if m != nil {
		m.ConsentUpdates.Inc()
	}
}
