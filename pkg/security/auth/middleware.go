package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Validator verifies bearer tokens.
type Validator interface {
	Validate(token string) (*Principal, error)
}

// Middleware requires a valid bearer token on every request.
type Middleware struct {
	validator Validator
	logger    *slog.Logger
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(v Validator) *Middleware {
	return &Middleware{validator: v, logger: slog.Default().With("component", "auth")}
}

// Handle wraps next. Failures return 401 {"detail": ...} with a
// WWW-Authenticate challenge.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			m.logger.WarnContext(r.Context(), "missing bearer token", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			unauthorized(w, "Not authenticated")
			return
		}

		principal, err := m.validator.Validate(token)
		if err != nil {
			m.logger.WarnContext(r.Context(), "rejected bearer token", "path", r.URL.Path, "error", err)
			unauthorized(w, "Invalid authentication credentials")
			return
		}

		m.logger.DebugContext(r.Context(), "authenticated", "subject", principal.Subject)
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
