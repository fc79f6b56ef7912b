// Package metrics records crypto operation counters and latencies against an
// injected Prometheus registerer. A nil Recorder is a no-op, so callers wire
// metrics only where the app exposes them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Recorder struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewRecorder builds and registers the collectors. reg may be
// prometheus.DefaultRegisterer or a per-test registry; nil skips
// registration but still records.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vettid_crypto_operations_total",
			Help: "Crypto operations by name and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vettid_crypto_operation_duration_seconds",
			Help:    "Crypto operation latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(r.operations, r.duration)
	}
	return r
}

// Observe records one operation. Outcome is "ok" or "error"; the error value
// itself is never attached to a label.
func (r *Recorder) Observe(op string, start time.Time, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.operations.WithLabelValues(op, outcome).Inc()
	r.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
