package webhook

import (
	"math/rand/v2"
	"time"
)

// Backoff returns the pause before retry n, where n starts at 1.
type Backoff func(n int) time.Duration

// Exponential doubles the pause from base on every retry and never waits
// longer than ceiling. jitter spreads each pause by up to that fraction in
// either direction.
func Exponential(base, ceiling time.Duration, jitter float64) Backoff {
	if base <= 0 {
		base = time.Second
	}
	if ceiling < base {
		ceiling = base
	}
	return func(n int) time.Duration {
		if n < 1 {
			return 0
		}
		d := base
		for i := 1; i < n && d < ceiling; i++ {
			d *= 2
		}
		if jitter > 0 {
			d = time.Duration(float64(d) * (1 + jitter*(2*rand.Float64()-1)))
		}
		return min(d, ceiling)
	}
}

// Constant waits d before every retry.
func Constant(d time.Duration) Backoff {
	return func(n int) time.Duration {
		if n < 1 {
			return 0
		}
		return d
	}
}

// DefaultBackoff is 500ms doubling up to 10s with 10% jitter.
func DefaultBackoff() Backoff {
	return Exponential(500*time.Millisecond, 10*time.Second, 0.1)
}
