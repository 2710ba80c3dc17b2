package webhook

import (
	"sync"
	"time"
)

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

var circuitStateNames = [...]string{"closed", "open", "half-open"}

func (s CircuitState) String() string {
	if s < 0 || int(s) >= len(circuitStateNames) {
		return "unknown"
	}
	return circuitStateNames[s]
}

// BreakerPolicy tunes a CircuitBreaker. Zero fields take the defaults:
// 5 failures, 1 probe, 30s cooldown.
type BreakerPolicy struct {
	// Failures in a row that open the circuit.
	Failures int
	// Probes that must succeed in half-open before the circuit closes.
	Probes int
	// Cooldown is how long an open circuit rejects calls.
	Cooldown time.Duration
}

func (p BreakerPolicy) withDefaults() BreakerPolicy {
	if p.Failures <= 0 {
		p.Failures = 5
	}
	if p.Probes <= 0 {
		p.Probes = 1
	}
	if p.Cooldown <= 0 {
		p.Cooldown = 30 * time.Second
	}
	return p
}

// CircuitBreaker guards one endpoint. Safe for concurrent use.
type CircuitBreaker struct {
	policy BreakerPolicy
	now    func() time.Time

	mu       sync.Mutex
	state    CircuitState
	streak   int
	openedAt time.Time
}

func NewCircuitBreaker(p BreakerPolicy) *CircuitBreaker {
	return &CircuitBreaker{policy: p.withDefaults(), now: time.Now}
}

// Allow reports whether a call may go out. An open circuit whose cooldown has
// elapsed moves to half-open and admits the call as a probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != CircuitOpen {
		return true
	}
	if cb.now().Sub(cb.openedAt) < cb.policy.Cooldown {
		return false
	}
	cb.state, cb.streak = CircuitHalfOpen, 0
	return true
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.streak = 0
	case CircuitHalfOpen:
		if cb.streak++; cb.streak >= cb.policy.Probes {
			cb.state, cb.streak = CircuitClosed, 0
		}
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		if cb.streak++; cb.streak >= cb.policy.Failures {
			cb.trip()
		}
	case CircuitHalfOpen:
		cb.trip()
	case CircuitOpen:
		cb.openedAt = cb.now()
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state, cb.streak, cb.openedAt = CircuitOpen, 0, cb.now()
}

// State reports half-open for an open circuit whose cooldown has elapsed,
// without consuming the probe.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && cb.now().Sub(cb.openedAt) >= cb.policy.Cooldown {
		return CircuitHalfOpen
	}
	return cb.state
}

// BreakerSet keeps one CircuitBreaker per endpoint URL, created on first use.
type BreakerSet struct {
	policy   BreakerPolicy
	breakers sync.Map
}

func NewBreakerSet(p BreakerPolicy) *BreakerSet {
	return &BreakerSet{policy: p}
}

// For returns the breaker for url. A nil set returns nil, which
// WithCircuitBreaker treats as no breaker.
func (s *BreakerSet) For(url string) *CircuitBreaker {
	if s == nil {
		return nil
	}
	if cb, ok := s.breakers.Load(url); ok {
		return cb.(*CircuitBreaker)
	}
	cb, _ := s.breakers.LoadOrStore(url, NewCircuitBreaker(s.policy))
	return cb.(*CircuitBreaker)
}
