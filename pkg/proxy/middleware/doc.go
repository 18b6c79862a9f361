// Package middleware provides the HTTP middleware shared by the API and the
// provider proxy.
//
// The server chains them outermost first:
//
//	handler = Chain(mux, RecoveryMiddleware, RequestIDMiddleware, Logging(metrics, route))
//
// and wraps API routes (not the proxy, which has its own upstream timeout)
// in TimeoutMiddleware.
//
// RequestIDMiddleware honors a client X-Request-ID of up to 128 bytes and
// otherwise generates a UUID v4. The ID is stored with logging.WithRequestID
// so every slog call made with the request context carries request_id.
//
// RecoveryMiddleware answers panics with 500 {"detail": "..."}, the error
// shape used throughout the API.
package middleware
