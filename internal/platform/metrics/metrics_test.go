package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStorage(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())

	m.ObserveStorage("sqlite", "get", nil, 0.01)
	m.ObserveStorage("sqlite", "set", errors.New("disk full"), 0.02)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOps.WithLabelValues("sqlite", "get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOps.WithLabelValues("sqlite", "set", "error")))
}

func TestIncExport(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())

	m.IncExport("submissions", 5)
	m.IncExport("submissions", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExportsTotal.WithLabelValues("submissions")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ExportedRows.WithLabelValues("submissions")))
}

func TestIncAdminLogin(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())
	m.IncAdminLogin(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdminLogins.WithLabelValues("failure")))
}
