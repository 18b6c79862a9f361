// Package logging configures the process-wide structured logger.
//
// New builds a log/slog handler (JSON or text) wrapped in a handler that
// appends request-scoped fields carried by the context (request_id,
// agent_id, session_id, provider, and the active trace and span IDs) and,
// when enabled, masks secrets and personal data in attribute values.
// Install sets it as slog's default; components then log through
// slog.Default().With("component", ...).
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Redact: true})
//	if err != nil {
//	    return err
//	}
//	logger.Install()
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "proxied request", "api_key", key) // request_id added, api_key masked
//
// Audit records never contain raw prompt text, but provider error bodies and
// request metadata can. Redaction covers bearer tokens, sk- API keys, email
// addresses, SSNs, card numbers and password assignments, plus any custom
// patterns from configuration. Keys ending in _id or _hash are never
// rewritten.
package logging
