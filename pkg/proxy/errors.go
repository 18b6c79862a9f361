package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error is a proxy failure with the status returned to the agent.
type Error struct {
	Status int
	Detail string
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Cause)
	}
	return e.Detail
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

func errUnknownProvider(name string) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: "Unknown provider: " + name}
}

func errMissingKey(name string) *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: "API key not configured for " + name}
}

func errUpstream(name string, cause error) *Error {
	return &Error{Status: http.StatusBadGateway, Detail: "Upstream request to " + name + " failed", Cause: cause}
}

func errUpstreamTimeout(name string, cause error) *Error {
	return &Error{Status: http.StatusGatewayTimeout, Detail: "Upstream request to " + name + " timed out", Cause: cause}
}

// writeError writes e as {"detail": ...}.
func writeError(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": e.Detail})
}
