package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReportMetrics tracks report generation jobs.
//
// Metrics:
//   - agentguard_reports_total{report_type,status}
//   - agentguard_report_generation_duration_seconds{report_type}
type ReportMetrics struct {
	reportsTotal *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewReportMetrics creates and registers report metrics.
func NewReportMetrics(namespace string, registry *prometheus.Registry) *ReportMetrics {
	rm := &ReportMetrics{
		reportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_total",
				Help:      "Finished report jobs by type and final status",
			},
			[]string{"report_type", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_generation_duration_seconds",
				Help:      "Report generation duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"report_type"},
		),
	}

	registry.MustRegister(rm.reportsTotal, rm.duration)
	return rm
}

// Record updates report metrics for one finished job.
func (rm *ReportMetrics) Record(reportType, status string, duration time.Duration) {
	rm.reportsTotal.WithLabelValues(reportType, status).Inc()
	rm.duration.WithLabelValues(reportType).Observe(duration.Seconds())
}
