package errors

import (
	"errors"
	"sync"
	"time"
)

// Breaker defaults.
const (
	ErrorThreshold      = 0.5
	MinRequests         = 10
	TimeoutDuration     = 30 * time.Second
	HalfOpenMaxRequests = 3
)

// State is the position of a CircuitBreaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = map[State]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half_open",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

var (
	// ErrCircuitOpen is returned without calling the guarded function while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyProbes is returned while the half-open probe budget is in use.
	ErrTooManyProbes = errors.New("circuit breaker is probing, too many requests")
)

// BreakerOption customizes a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// WithBreakerTimeout sets how long the breaker stays open before probing.
func WithBreakerTimeout(d time.Duration) BreakerOption {
	return func(cb *CircuitBreaker) {
		if d > 0 {
			cb.timeout = d
		}
	}
}

// WithBreakerClock replaces the time source.
func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(cb *CircuitBreaker) {
		if now != nil {
			cb.now = now
		}
	}
}

// WithStateChange registers a callback invoked on every state change. It
// runs with the breaker lock held and must not call back into the breaker.
func WithStateChange(fn func(from, to State)) BreakerOption {
	return func(cb *CircuitBreaker) {
		cb.onChange = fn
	}
}

// counts tallies outcomes since the last state change.
type counts struct {
	requests  int
	failures  int
	successes int
}

func (c counts) failureRate() float64 {
	if c.requests == 0 {
		return 0
	}
	return float64(c.failures) / float64(c.requests)
}

// CircuitBreaker stops calling a failing dependency. Closed, it trips open
// once at least MinRequests calls have a failure rate of ErrorThreshold. Open,
// it rejects calls until the timeout passes, then lets up to
// HalfOpenMaxRequests probes through: one failure reopens it, that many
// successes close it.
type CircuitBreaker struct {
	mu       sync.Mutex
	state    State
	counts   counts
	probes   int
	openedAt time.Time

	timeout  time.Duration
	now      func() time.Time
	onChange func(from, to State)
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(opts ...BreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		state:   StateClosed,
		timeout: TimeoutDuration,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Call runs fn unless the breaker rejects it, and records the outcome.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn()
	cb.record(err == nil)
	return err
}

// State returns the current state, moving an expired open breaker to half-open.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.expireLocked()
	return cb.state
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.expireLocked()
	switch cb.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.probes >= HalfOpenMaxRequests {
			return ErrTooManyProbes
		}
		cb.probes++
	}
	return nil
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.counts.requests++
	if !success {
		cb.counts.failures++
	} else {
		cb.counts.successes++
	}

	switch cb.state {
	case StateClosed:
		if cb.counts.requests >= MinRequests && cb.counts.failureRate() >= ErrorThreshold {
			cb.moveLocked(StateOpen)
		}
	case StateHalfOpen:
		if !success {
			cb.moveLocked(StateOpen)
		} else if cb.counts.successes >= HalfOpenMaxRequests {
			cb.moveLocked(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) expireLocked() {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.timeout {
		cb.moveLocked(StateHalfOpen)
	}
}

func (cb *CircuitBreaker) moveLocked(to State) {
	from := cb.state
	cb.state = to
	cb.counts = counts{}
	cb.probes = 0
	if to == StateOpen {
		cb.openedAt = cb.now()
	}

	if from != to && cb.onChange != nil {
		cb.onChange(from, to)
	}
}
