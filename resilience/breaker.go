// Package resilience provides the failure-isolation primitives wrapped around
// every external dependency call: a per-dependency circuit breaker and a
// bounded retry executor.
package resilience

import (
	"fmt"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitOpenError is returned when a call is rejected because the breaker is
// open and no fallback is configured.
type CircuitOpenError struct {
	Name string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open", e.Name)
}

// IsCircuitOpen reports whether err is a breaker rejection.
func IsCircuitOpen(err error) bool {
	_, ok := err.(*CircuitOpenError)
	return ok
}

// Counts holds cumulative call counters for a breaker.
type Counts struct {
	Total     uint64 `json:"total"`
	Successes uint64 `json:"successes"`
	Failures  uint64 `json:"failures"`
	Rejected  uint64 `json:"rejected"`
}

// Snapshot is a point-in-time view of a breaker, exposed on the health route.
type Snapshot struct {
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Counts      Counts    `json:"counts"`
	NextAttempt time.Time `json:"nextAttempt,omitempty"`
}

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures that open the breaker
	SuccessThreshold int           // consecutive half-open successes that close it
	Timeout          time.Duration // open duration before the next probe
	// Fallback, when set, runs on every rejected call while open. It must be
	// side-effect-free or safe to call repeatedly.
	Fallback      func(err error) error
	OnStateChange func(name string, from, to State)
}

// Breaker is a process-wide singleton per dependency name. All callers of a
// dependency observe and affect the same state; that is the point — the
// breaker isolates failures across requests, not per request.
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int
	timeout          time.Duration
	fallback         func(err error) error
	onStateChange    func(name string, from, to State)

	mu          sync.Mutex
	state       State
	failures    int // consecutive, meaningful while closed
	successes   int // consecutive, meaningful while half-open
	nextAttempt time.Time
	counts      Counts

	now func() time.Time // for testing
}

// NewBreaker creates a breaker in the closed state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Breaker{
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		timeout:          cfg.Timeout,
		fallback:         cfg.Fallback,
		onStateChange:    cfg.OnStateChange,
		state:            StateClosed,
		now:              time.Now,
	}
}

// Execute runs fn under the breaker. While open it rejects immediately,
// invoking the fallback if one is configured, otherwise returning a
// *CircuitOpenError. Once the open timeout elapses the next call transitions
// the breaker to half-open before attempting fn.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	b.counts.Total++

	if b.state == StateOpen {
		if b.now().Before(b.nextAttempt) {
			b.counts.Rejected++
			fallback := b.fallback
			b.mu.Unlock()
			rejected := &CircuitOpenError{Name: b.name}
			if fallback != nil {
				return fallback(rejected)
			}
			return rejected
		}
		b.transitionTo(StateHalfOpen)
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) onFailure() {
	b.counts.Failures++
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.nextAttempt = b.now().Add(b.timeout)
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		b.nextAttempt = b.now().Add(b.timeout)
		b.transitionTo(StateOpen)
	}
}

func (b *Breaker) onSuccess() {
	b.counts.Successes++
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.transitionTo(StateClosed)
		}
	}
}

func (b *Breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}
	oldState := b.state
	b.state = newState
	b.failures = 0
	b.successes = 0
	if b.onStateChange != nil {
		go b.onStateChange(b.name, oldState, newState)
	}
}

// Name returns the dependency name this breaker guards.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a point-in-time view of the breaker.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := Snapshot{
		Name:   b.name,
		State:  b.state.String(),
		Counts: b.counts,
	}
	if b.state == StateOpen {
		snap.NextAttempt = b.nextAttempt
	}
	return snap
}

// Reset forces the breaker back to closed and clears consecutive counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
