package security

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is the replay window applied to X-Timestamp.
const DefaultTolerance = 5 * time.Minute

// FreshnessChecker rejects request timestamps too far from the server clock in
// either direction.
type FreshnessChecker struct {
	Tolerance time.Duration
	Now       func() time.Time
}

// NewFreshnessChecker returns a checker using the wall clock. A non-positive
// tolerance falls back to DefaultTolerance.
func NewFreshnessChecker(tolerance time.Duration) *FreshnessChecker {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &FreshnessChecker{Tolerance: tolerance, Now: time.Now}
}

// IsFresh reports whether |now - ts| is strictly less than the tolerance.
// ts is milliseconds since the Unix epoch.
func (c *FreshnessChecker) IsFresh(ts int64) bool {
	now := c.now().UnixMilli()
	diff := now - ts
	if diff < 0 {
		diff = -diff
	}
	// A negative diff after negation means the subtraction overflowed.
	if diff < 0 {
		return false
	}
	return diff < c.tolerance().Milliseconds()
}

func (c *FreshnessChecker) now() time.Time {
	if c == nil || c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *FreshnessChecker) tolerance() time.Duration {
	if c == nil || c.Tolerance <= 0 {
		return DefaultTolerance
	}
	return c.Tolerance
}

// ParseTimestamp parses a decimal milliseconds header value.
func ParseTimestamp(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("security: empty timestamp")
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("security: parse timestamp: %w", err)
	}
	return ts, nil
}
