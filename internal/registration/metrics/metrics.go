package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RegistrationsTotal *prometheus.CounterVec
	RegisterLatency    prometheus.Histogram
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aieni_registrations_total",
			Help: "Conference registrations, labeled by outcome and registration type",
		}, []string{"outcome", "type"}),
		RegisterLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aieni_registration_latency_seconds",
			Help:    "Latency of registration handling",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncRegistration(outcome, registrationType string) {
	m.RegistrationsTotal.WithLabelValues(outcome, registrationType).Inc()
}

func (m *Metrics) ObserveRegisterLatency(seconds float64) {
	m.RegisterLatency.Observe(seconds)
}
