package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for abstract submissions.
type Metrics struct {
	SubmissionsTotal *prometheus.CounterVec
	StatusChanges    *prometheus.CounterVec
	UploadBytes      prometheus.Histogram
	SubmitLatency    prometheus.Histogram
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SubmissionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aieni_submissions_total",
			Help: "Abstract submissions, labeled by outcome (stored, forwarded, rejected, failed)",
		}, []string{"outcome"}),
		StatusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aieni_submission_status_changes_total",
			Help: "Review status changes, labeled by new status",
		}, []string{"status"}),
		UploadBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aieni_submission_upload_bytes",
			Help:    "Size of uploaded abstract documents",
			Buckets: []float64{16 << 10, 64 << 10, 256 << 10, 1 << 20, 2 << 20, 5 << 20},
		}),
		SubmitLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aieni_submission_latency_seconds",
			Help:    "Latency of abstract submission handling",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncSubmission(outcome string) {
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncStatusChange(status string) {
	m.StatusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveUpload(bytes int) {
	m.UploadBytes.Observe(float64(bytes))
}

func (m *Metrics) ObserveSubmitLatency(seconds float64) {
	m.SubmitLatency.Observe(seconds)
}
