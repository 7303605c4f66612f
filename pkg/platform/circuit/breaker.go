// Package circuit tracks consecutive failures of a remote dependency.
package circuit

import (
	"errors"
	"sync"
)

type State int

const (
	// StateClosed means the dependency looks healthy.
	StateClosed State = iota
	// StateOpen means FailureThreshold calls in a row have failed.
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// ErrOpen is returned by Check while the circuit is open.
var ErrOpen = errors.New("circuit open")

// StateChange reports a transition caused by the last recorded outcome.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker is a two-state breaker. It never short-circuits calls on its own;
// callers keep trying the dependency and the breaker only reports whether
// recent calls have been failing. After SuccessThreshold consecutive
// successes while open it closes again.
type Breaker struct {
	mu               sync.Mutex
	state            State
	name             string
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
}

type Option func(*Breaker)

// WithFailureThreshold defaults to 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold defaults to 3.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 3,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Record feeds one call outcome into the breaker.
func (b *Breaker) Record(failed bool) StateChange {
	b.mu.Lock()
	defer b.mu.Unlock()

	if failed {
		b.failureCount++
		b.successCount = 0
		if b.state == StateClosed && b.failureCount >= b.failureThreshold {
			b.state = StateOpen
			return StateChange{Opened: true}
		}
		return StateChange{}
	}

	if b.state == StateOpen {
		b.successCount++
		if b.successCount < b.successThreshold {
			return StateChange{}
		}
		b.state = StateClosed
		b.successCount = 0
		b.failureCount = 0
		return StateChange{Closed: true}
	}
	b.failureCount = 0
	return StateChange{}
}

// Check returns ErrOpen while the circuit is open. It fits a readiness probe.
func (b *Breaker) Check() error {
	if b.State() == StateOpen {
		return ErrOpen
	}
	return nil
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
}
