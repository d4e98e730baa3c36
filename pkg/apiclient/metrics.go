package apiclient

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for upstream calls.
type Metrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// NewMetrics returns the process-wide upstream metrics.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			callsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "catering_upstream_calls_total",
					Help: "Total number of upstream calls by service, method and outcome",
				},
				[]string{"service", "method", "outcome"},
			),
			callDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "catering_upstream_call_duration_seconds",
					Help:    "Upstream call duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"service", "method"},
			),
		}
	})
	return metricsInst
}

func (m *Metrics) observe(service, method string, status int, err error, d time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "GET"
	}
	m.callsTotal.WithLabelValues(service, method, outcome(status, err)).Inc()
	m.callDuration.WithLabelValues(service, method).Observe(d.Seconds())
}

// outcome is "ok", "network_error" or the upstream status code.
func outcome(status int, err error) string {
	if err == nil {
		return "ok"
	}
	if status == 0 {
		return "network_error"
	}
	return strconv.Itoa(status)
}
