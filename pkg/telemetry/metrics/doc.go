// Package metrics exposes AgentGuard's Prometheus metrics.
//
// A single Collector owns a registry and implements the observer
// interfaces declared by the components it measures:
//
//   - recorder.Observer: interactions, tokens, risk scores, PII and flags
//   - compliance.Observer: evaluations, latest score per agent, duration
//   - proxy.Observer: upstream calls by provider and status
//   - middleware.StatusObserver: served HTTP requests by route template
//   - reports.Observer: finished report jobs
//   - cache.Observer: cache hits and misses
//
// Wire it once at startup and mount Handler on the metrics path:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	rec.SetObserver(collector)
//	router.Handle("/metrics", collector.Handler())
//
// Per-agent series are capped by a CardinalityLimiter; agents beyond the
// cap are reported under the "other" label.
package metrics
