package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ComplianceMetrics tracks compliance evaluations.
//
// Metrics:
//   - agentguard_compliance_evaluations_total{regulation,grade}
//   - agentguard_compliance_score{agent,regulation}
//   - agentguard_compliance_evaluation_duration_seconds{regulation}
type ComplianceMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	score              *prometheus.GaugeVec
	evaluationDuration *prometheus.HistogramVec
}

// NewComplianceMetrics creates and registers compliance metrics.
func NewComplianceMetrics(namespace string, registry *prometheus.Registry) *ComplianceMetrics {
	cm := &ComplianceMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compliance_evaluations_total",
				Help:      "Total number of persisted compliance evaluations",
			},
			[]string{"regulation", "grade"},
		),
		score: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "compliance_score",
				Help:      "Latest compliance score per agent and regulation",
			},
			[]string{"agent", "regulation"},
		),
		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compliance_evaluation_duration_seconds",
				Help:      "Duration of compliance evaluations in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"regulation"},
		),
	}

	registry.MustRegister(cm.evaluationsTotal, cm.score, cm.evaluationDuration)
	return cm
}

// Record updates compliance metrics for one evaluation.
func (cm *ComplianceMetrics) Record(agent, regulation, grade string, score float64, duration time.Duration) {
	cm.evaluationsTotal.WithLabelValues(regulation, grade).Inc()
	cm.score.WithLabelValues(agent, regulation).Set(score)
	cm.evaluationDuration.WithLabelValues(regulation).Observe(duration.Seconds())
}
