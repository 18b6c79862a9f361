// Package health provides liveness, readiness and version endpoints.
//
// Readiness runs every registered check concurrently, each under its own
// timeout. AgentGuard registers the audit store, the Redis cache when
// enabled, and the retention and compliance schedulers when configured:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("storage", health.StoreCheck(store))
//	checker.RegisterCheck("cache", health.PingCheck(c))
//	router.Handle("/health/ready", checker.ReadinessHandler())
package health
