package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics records latency and failures of cart storage operations.
type StorageMetrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewStorageMetrics registers the storage metrics on the provided registerer.
func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	if reg == nil {
		return &StorageMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_storage_duration_seconds",
		Help:    "Duration of cart storage operations in seconds.",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"backend", "op"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_storage_failures_total",
		Help: "Failed cart storage operations.",
	}, []string{"backend", "op"})
	reg.MustRegister(duration, failures)
	return &StorageMetrics{duration: duration, failures: failures}
}

// Observe records one operation. A non-nil err also bumps the failure counter.
func (m *StorageMetrics) Observe(backend, op string, took time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	backend, op = jobLabel(backend), jobLabel(op)
	m.duration.WithLabelValues(backend, op).Observe(took.Seconds())
	if err != nil {
		m.failures.WithLabelValues(backend, op).Inc()
	}
}
