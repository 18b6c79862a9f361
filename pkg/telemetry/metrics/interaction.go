package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"agentguard-hq/agentguard/pkg/evidence"
)

// InteractionMetrics tracks recorded agent interactions.
//
// Metrics:
//   - agentguard_interactions_total{provider,risk_level,pii}
//   - agentguard_interaction_tokens_total{provider,direction}
//   - agentguard_interaction_risk_score
//   - agentguard_pii_detections_total{pii_type}
//   - agentguard_compliance_flags_total{code,severity}
type InteractionMetrics struct {
	interactionsTotal *prometheus.CounterVec
	tokensTotal       *prometheus.CounterVec
	riskScore         prometheus.Histogram
	piiDetections     *prometheus.CounterVec
	flagsTotal        *prometheus.CounterVec
}

// NewInteractionMetrics creates and registers interaction metrics.
func NewInteractionMetrics(namespace string, registry *prometheus.Registry) *InteractionMetrics {
	im := &InteractionMetrics{
		interactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interactions_total",
				Help:      "Total number of recorded agent interactions",
			},
			[]string{"provider", "risk_level", "pii"},
		),
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interaction_tokens_total",
				Help:      "Total tokens seen in recorded interactions",
			},
			[]string{"provider", "direction"},
		),
		riskScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "interaction_risk_score",
				Help:      "Distribution of interaction risk scores",
				Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
		),
		piiDetections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pii_detections_total",
				Help:      "Interactions containing each PII category",
			},
			[]string{"pii_type"},
		),
		flagsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compliance_flags_total",
				Help:      "Real-time compliance flags raised on interactions",
			},
			[]string{"code", "severity"},
		),
	}

	registry.MustRegister(
		im.interactionsTotal,
		im.tokensTotal,
		im.riskScore,
		im.piiDetections,
		im.flagsTotal,
	)
	return im
}

// Record updates every interaction metric for one stored record.
func (im *InteractionMetrics) Record(record *evidence.InteractionRecord) {
	if record == nil {
		return
	}

	riskLevel := record.Metadata["risk_level"]
	if riskLevel == "" {
		riskLevel = "unknown"
	}
	im.interactionsTotal.WithLabelValues(record.Provider, riskLevel, strconv.FormatBool(record.PIIDetected)).Inc()

	if record.PromptTokens > 0 {
		im.tokensTotal.WithLabelValues(record.Provider, "prompt").Add(float64(record.PromptTokens))
	}
	if record.ResponseTokens > 0 {
		im.tokensTotal.WithLabelValues(record.Provider, "response").Add(float64(record.ResponseTokens))
	}

	im.riskScore.Observe(record.RiskScore)

	for _, t := range record.PIITypes {
		im.piiDetections.WithLabelValues(t).Inc()
	}
	for _, f := range record.ComplianceFlags {
		im.flagsTotal.WithLabelValues(f.Code, string(f.Severity)).Inc()
	}
}
