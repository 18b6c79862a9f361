package proxy

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

const (
	// MaxRequestBodySize is the largest request body forwarded (10MB).
	MaxRequestBodySize = 10 * 1024 * 1024

	// MaxResponseBodySize is the largest upstream body relayed (32MB).
	MaxResponseBodySize = 32 * 1024 * 1024

	// AgentIDHeader identifies the calling agent.
	AgentIDHeader = "X-Agent-ID"

	// SessionIDHeader optionally groups an agent's calls.
	SessionIDHeader = "X-Session-ID"
)

// hopHeaders are never copied from the upstream response.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Content-Length":      true,
	"Content-Encoding":    true,
}

// readLimited reads at most limit bytes, failing when r holds more.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("body exceeds %d bytes", limit)
	}
	return body, nil
}

// clientIP returns the request's remote host without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// isJSON reports whether a Content-Type names JSON.
func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}
