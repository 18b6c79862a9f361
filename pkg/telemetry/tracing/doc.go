// Package tracing configures OpenTelemetry for AgentGuard.
//
// New installs a global tracer provider exporting over OTLP gRPC, or a
// no-op provider when tracing is disabled. Components never hold a
// *Provider; they call otel.Tracer("agentguard/<component>") and their
// spans follow whatever provider is installed:
//
//   - proxy.forward: one span per proxied provider call
//   - compliance.evaluate: one span per compliance evaluation
//   - HTTPMiddleware: one server span per inbound request, continuing any
//     W3C traceparent sent by the caller
//
// Sampling is parent-based with an always, never or ratio root sampler.
package tracing
