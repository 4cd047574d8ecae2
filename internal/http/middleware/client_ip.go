package middleware

import (
	"net/http"
	"strings"
)

// UnknownClient is the shared identifier for callers without forwarding headers.
const UnknownClient = "unknown"

// ClientIP resolves the caller identifier used for rate limiting: the first hop
// of X-Forwarded-For, then X-Real-IP, then UnknownClient. RemoteAddr is not
// consulted because the service runs behind a proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return UnknownClient
}
