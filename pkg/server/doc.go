// Package server assembles AgentGuard from its configuration and runs it.
//
// A Server owns the audit store, the interaction recorder, the compliance
// engine and its scheduler, the retention pruner, the report generator, the
// optional Redis cache and the metrics collector. One HTTP listener serves:
//
//	/proxy/{provider}/{path}   recording proxy to the LLM providers
//	/api/...                   management API, optionally behind JWT auth
//	/, /health                 service banner and basic health
//	/health/live, /health/ready, /version
//	/metrics                   Prometheus exposition
//
// Shutdown stops the listener first, then drains queued recordings and
// running report jobs before the store is closed.
package server
