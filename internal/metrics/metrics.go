package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the instrumentation for the local HTTP API and the calls it
// proxies to Sophos Central.
type Metrics struct {
	requestTotal     *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

// New registers the metric vectors on the given registerer and returns the
// handle used by the middleware and the remote clients.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "localsites",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of local API requests served",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "localsites",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of local API requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		upstreamTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "localsites",
				Subsystem: "upstream",
				Name:      "calls_total",
				Help:      "Total number of calls issued to Sophos Central",
			},
			[]string{"operation", "outcome"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "localsites",
				Subsystem: "upstream",
				Name:      "call_duration_seconds",
				Help:      "Duration of calls to Sophos Central in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(m.requestTotal, m.requestDuration, m.upstreamTotal, m.upstreamDuration)
	return m
}

func (m *Metrics) ObserveRequest(method, path, status string, elapsed time.Duration) {
	m.requestTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveUpstream(operation, outcome string, elapsed time.Duration) {
	m.upstreamTotal.WithLabelValues(operation, outcome).Inc()
	m.upstreamDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
