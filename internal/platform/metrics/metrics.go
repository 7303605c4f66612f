package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide Prometheus metrics that are not owned by a
// single domain package.
type Metrics struct {
	StorageOps     *prometheus.CounterVec
	StorageLatency *prometheus.HistogramVec
	ExportsTotal   *prometheus.CounterVec
	ExportedRows   *prometheus.CounterVec
	AdminLogins    *prometheus.CounterVec
}

// New registers metrics on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StorageOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aieni_storage_operations_total",
			Help: "Key-value storage operations, labeled by driver, operation and result",
		}, []string{"driver", "op", "result"}),
		StorageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aieni_storage_latency_seconds",
			Help:    "Latency of key-value storage operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"driver", "op"}),
		ExportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aieni_exports_total",
			Help: "CSV exports generated, labeled by record kind",
		}, []string{"kind"}),
		ExportedRows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aieni_exported_rows_total",
			Help: "Data rows written to CSV exports, labeled by record kind",
		}, []string{"kind"}),
		AdminLogins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aieni_admin_logins_total",
			Help: "Admin login attempts, labeled by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveStorage(driver, op string, err error, seconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StorageOps.WithLabelValues(driver, op, result).Inc()
	m.StorageLatency.WithLabelValues(driver, op).Observe(seconds)
}

func (m *Metrics) IncExport(kind string, rows int) {
	m.ExportsTotal.WithLabelValues(kind).Inc()
	m.ExportedRows.WithLabelValues(kind).Add(float64(rows))
}

func (m *Metrics) IncAdminLogin(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.AdminLogins.WithLabelValues(result).Inc()
}
