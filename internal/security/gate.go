package security

import "strings"

// CheckOrigin reports whether origin contains any allow-list entry. Entries are
// matched as substrings so a bare domain such as "example.com" admits
// "https://app.example.com". An empty origin is always denied.
func CheckOrigin(origin string, allowlist []string) bool {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return false
	}
	for _, allowed := range allowlist {
		allowed = strings.TrimSpace(allowed)
		if allowed != "" && strings.Contains(origin, allowed) {
			return true
		}
	}
	return false
}

// CheckAPIKey reports whether key is a member of validKeys.
func CheckAPIKey(key string, validKeys map[string]struct{}) bool {
	if key == "" {
		return false
	}
	_, ok := validKeys[key]
	return ok
}

// AccessGate combines the origin and API key checks.
type AccessGate struct {
	origins []string
	keys    map[string]struct{}
}

// NewAccessGate builds a gate from configured origins and keys. Blank entries are dropped.
func NewAccessGate(origins, apiKeys []string) *AccessGate {
	g := &AccessGate{keys: make(map[string]struct{}, len(apiKeys))}
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			g.origins = append(g.origins, o)
		}
	}
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			g.keys[k] = struct{}{}
		}
	}
	return g
}

// AllowOrigin applies CheckOrigin against the configured allow-list.
func (g *AccessGate) AllowOrigin(origin string) bool {
	if g == nil {
		return false
	}
	return CheckOrigin(origin, g.origins)
}

// AllowAPIKey applies CheckAPIKey against the configured key set.
func (g *AccessGate) AllowAPIKey(key string) bool {
	if g == nil {
		return false
	}
	return CheckAPIKey(key, g.keys)
}

// Check evaluates origin first, then the API key.
func (g *AccessGate) Check(origin, key string) error {
	if !g.AllowOrigin(origin) {
		return ErrOriginNotAllowed
	}
	if !g.AllowAPIKey(key) {
		return ErrInvalidAPIKey
	}
	return nil
}
