// Package ratelimit caps request volume per caller identifier using a fixed-window
// counter. Bursts straddling a window boundary can reach twice the nominal limit;
// this is an accepted approximation.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Default policy for the lead webhook.
const (
	DefaultLimit  = 20
	DefaultWindow = time.Minute
)

// Decision is the outcome of a single rate-limit check.
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Policy is the request budget applied per identifier.
type Policy struct {
	Limit  int
	Window time.Duration
}

// DefaultPolicy returns 20 requests per minute.
func DefaultPolicy() Policy {
	return Policy{Limit: DefaultLimit, Window: DefaultWindow}
}

func (p Policy) normalized() Policy {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Window <= 0 {
		p.Window = DefaultWindow
	}
	return p
}

// Limiter is the counter store consulted by the ingestion pipeline. Implementations
// must be safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string) Decision
}

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in process memory. Entries live for the lifetime of
// the process, so cardinality grows with the number of distinct identifiers seen.
type MemoryLimiter struct {
	mu     sync.Mutex
	policy Policy
	items  map[string]*entry
	now    func() time.Time
}

// NewMemory returns an in-memory limiter bound to policy.
func NewMemory(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy: policy.normalized(),
		items:  make(map[string]*entry),
		now:    time.Now,
	}
}

// Allow applies the bound policy to key.
func (l *MemoryLimiter) Allow(_ context.Context, key string) Decision {
	return l.Take(key, l.policy.Limit, l.policy.Window)
}

// Take records one request for key against an explicit limit and window.
// An expired or missing entry is reset to a count of one. A live entry is
// incremented while below limit; otherwise the request is denied and the count
// is left unchanged.
func (l *MemoryLimiter) Take(key string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = DefaultWindow
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	curr, ok := l.items[key]
	if !ok || now.After(curr.resetAt) {
		curr = &entry{count: 1, resetAt: now.Add(window)}
		l.items[key] = curr
		return decision(true, curr, limit)
	}
	if curr.count < limit {
		curr.count++
		return decision(true, curr, limit)
	}
	return decision(false, curr, limit)
}

// Len reports how many identifiers are tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func decision(allowed bool, e *entry, limit int) Decision {
	remaining := limit - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   allowed,
		Count:     e.count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   e.resetAt,
	}
}
