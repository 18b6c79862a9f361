package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics tracks read-through cache lookups.
//
// Metrics:
//   - agentguard_cache_hits_total{cache}
//   - agentguard_cache_misses_total{cache}
type CacheMetrics struct {
	hitsTotal   *prometheus.CounterVec
	missesTotal *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics.
func NewCacheMetrics(namespace string, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(cm.hitsTotal, cm.missesTotal)
	return cm
}

// Record counts one lookup.
func (cm *CacheMetrics) Record(name string, hit bool) {
	if hit {
		cm.hitsTotal.WithLabelValues(name).Inc()
		return
	}
	cm.missesTotal.WithLabelValues(name).Inc()
}
