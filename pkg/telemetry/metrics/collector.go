package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"agentguard-hq/agentguard/pkg/compliance"
	"agentguard-hq/agentguard/pkg/config"
	"agentguard-hq/agentguard/pkg/evidence"
)

// maxAgentLabels bounds the per-agent compliance score series.
const maxAgentLabels = 10000

// Collector owns every AgentGuard Prometheus metric. It implements the
// observer interfaces of the recorder, compliance engine, report generator,
// proxy, HTTP middleware and cache, so components report to it without
// importing Prometheus.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	interactionMetrics *InteractionMetrics
	complianceMetrics  *ComplianceMetrics
	upstreamMetrics    *UpstreamMetrics
	httpMetrics        *HTTPMetrics
	reportMetrics      *ReportMetrics
	cacheMetrics       *CacheMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector registering into registry, or into a
// fresh registry when nil.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		interactionMetrics: NewInteractionMetrics(cfg.Namespace, registry),
		complianceMetrics:  NewComplianceMetrics(cfg.Namespace, registry),
		upstreamMetrics:    NewUpstreamMetrics(cfg.Namespace, registry),
		httpMetrics:        NewHTTPMetrics(cfg.Namespace, registry),
		reportMetrics:      NewReportMetrics(cfg.Namespace, registry),
		cacheMetrics:       NewCacheMetrics(cfg.Namespace, registry),
		cardinalityLimiter: NewCardinalityLimiter(maxAgentLabels),
	}
}

// ObserveInteraction records a stored audit record.
func (c *Collector) ObserveInteraction(record *evidence.InteractionRecord) {
	c.interactionMetrics.Record(record)
}

// ObserveEvaluation records a persisted compliance report.
func (c *Collector) ObserveEvaluation(report *compliance.Report, duration time.Duration) {
	agent := report.AgentID
	if !c.cardinalityLimiter.Allow(fmt.Sprintf("%s:%s", agent, report.Regulation)) {
		agent = "other"
	}
	c.complianceMetrics.Record(agent, string(report.Regulation), report.Grade, report.OverallScore, duration)
}

// ObserveUpstream records one upstream provider call. Status 0 means the
// call never produced a response.
func (c *Collector) ObserveUpstream(provider string, status int, duration time.Duration) {
	c.upstreamMetrics.Record(provider, status, duration)
}

// ObserveHTTP records one served HTTP request.
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	c.httpMetrics.Record(method, route, status, duration)
}

// ObserveReport records a finished report job.
func (c *Collector) ObserveReport(reportType, status string, duration time.Duration) {
	c.reportMetrics.Record(reportType, status, duration)
}

// ObserveCache records a cache lookup.
func (c *Collector) ObserveCache(name string, hit bool) {
	c.cacheMetrics.Record(name, hit)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct label sets admitted.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting maxCardinality label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or still fits.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
