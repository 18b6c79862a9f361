package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks calls forwarded to LLM providers.
//
// Metrics:
//   - agentguard_upstream_requests_total{provider,status}
//   - agentguard_upstream_duration_seconds{provider}
//   - agentguard_upstream_errors_total{provider,error_type}
type UpstreamMetrics struct {
	requestsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	errorsTotal   *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics.
func NewUpstreamMetrics(namespace string, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of requests forwarded to providers",
			},
			[]string{"provider", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Provider call latency in seconds",
				// LLM latencies, 100ms to 2m.
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"provider"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_errors_total",
				Help:      "Provider calls that failed or returned an error status",
			},
			[]string{"provider", "error_type"},
		),
	}

	registry.MustRegister(um.requestsTotal, um.duration, um.errorsTotal)
	return um
}

// Record updates upstream metrics for one call.
func (um *UpstreamMetrics) Record(provider string, status int, duration time.Duration) {
	um.requestsTotal.WithLabelValues(provider, strconv.Itoa(status)).Inc()
	um.duration.WithLabelValues(provider).Observe(duration.Seconds())

	if errType := upstreamErrorType(status); errType != "" {
		um.errorsTotal.WithLabelValues(provider, errType).Inc()
	}
}

func upstreamErrorType(status int) string {
	switch {
	case status == 0:
		return "unreachable"
	case status == 429:
		return "rate_limit"
	case status == 401 || status == 403:
		return "auth"
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	}
	return ""
}
