package webhook

import (
	"net/http"
	"time"
)

// Attempt is the outcome of a single POST within one Send call.
type Attempt struct {
	Number     int
	StatusCode int
	Elapsed    time.Duration
	Err        error
}

// OK reports a 2xx response.
func (a Attempt) OK() bool {
	return a.Err == nil && a.StatusCode >= 200 && a.StatusCode < 300
}

// SendOption tunes a single Send call.
type SendOption func(*sendConfig)

type sendConfig struct {
	timeout time.Duration
	header  http.Header
	retries int
	backoff Backoff
	breaker *CircuitBreaker
	observe func(Attempt)
}

func newSendConfig(opts []SendOption) *sendConfig {
	c := &sendConfig{
		timeout: 10 * time.Second,
		header:  http.Header{},
		retries: 3,
		backoff: DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout bounds each attempt. Non-positive values keep the 10s default.
func WithTimeout(d time.Duration) SendOption {
	return func(c *sendConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHeader sets a request header on every attempt.
func WithHeader(key, value string) SendOption {
	return func(c *sendConfig) {
		if key != "" && value != "" {
			c.header.Set(key, value)
		}
	}
}

// WithAuthorization sends value as the Authorization header unchanged.
func WithAuthorization(value string) SendOption {
	return WithHeader("Authorization", value)
}

// WithMaxRetries caps retries after the first attempt.
func WithMaxRetries(n int) SendOption {
	return func(c *sendConfig) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoff replaces the pause schedule between attempts.
func WithBackoff(b Backoff) SendOption {
	return func(c *sendConfig) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithBasicRetry retries n times with a constant pause.
func WithBasicRetry(n int, pause time.Duration) SendOption {
	return func(c *sendConfig) {
		c.retries = max(n, 0)
		c.backoff = Constant(pause)
	}
}

// WithNoRetry makes Send give up after the first attempt.
func WithNoRetry() SendOption {
	return WithMaxRetries(0)
}

// WithCircuitBreaker routes the call through cb. Share breakers per endpoint
// with BreakerSet.
func WithCircuitBreaker(cb *CircuitBreaker) SendOption {
	return func(c *sendConfig) { c.breaker = cb }
}

// OnAttempt calls fn after every attempt, successful or not.
func OnAttempt(fn func(Attempt)) SendOption {
	return func(c *sendConfig) { c.observe = fn }
}
