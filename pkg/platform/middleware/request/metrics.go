package request

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EndpointLatency *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers on reg so tests can use a throwaway registry.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		EndpointLatency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "aieni_http_request_duration_seconds",
			Help: "Latency of HTTP requests by route pattern, method and status class",
			// Exports and uploads sit at the slow end.
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status"}),
	}
}

func (m *Metrics) ObserveEndpointLatency(route, method, status string, seconds float64) {
	m.EndpointLatency.WithLabelValues(route, method, status).Observe(seconds)
}
