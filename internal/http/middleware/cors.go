package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowHeaders = "Content-Type, X-API-Key, X-Signature, X-Timestamp"
	corsAllowMethods = "POST, OPTIONS"
	corsMaxAge       = "600"
)

// SetCORSHeaders echoes origin back to the caller. Callers decide whether the
// origin is allowed before calling it.
func SetCORSHeaders(w http.ResponseWriter, origin string) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Add("Vary", "Origin")
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Max-Age", corsMaxAge)
}

// Preflight answers OPTIONS requests for the webhook. It carries no credentials,
// so it neither consults the access gate nor counts against the rate limit.
func Preflight(w http.ResponseWriter, r *http.Request) {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		origin = "*"
	}
	SetCORSHeaders(w, origin)
	w.WriteHeader(http.StatusOK)
}
