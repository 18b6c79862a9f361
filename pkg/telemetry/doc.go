// Package telemetry groups AgentGuard's observability packages.
//
//   - logging: slog setup with context fields and secret redaction
//   - metrics: Prometheus collector fed by component observers
//   - health: liveness, readiness and version endpoints
//   - tracing: OpenTelemetry provider setup and HTTP trace propagation
package telemetry
