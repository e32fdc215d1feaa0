package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker guards one outbound dependency. A nil breaker is valid and
// lets every call through, which is what a disabled config produces.
type CircuitBreaker struct {
	name string
	cfg  CircuitBreakerConfig

	mu                  sync.Mutex
	state               CircuitState
	consecutiveFailures int
	openedAt            time.Time
	probesInFlight      int
	probeSuccesses      int
	now                 func() time.Time
}

// NewCircuitBreaker returns nil when cfg is disabled.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	return &CircuitBreaker{
		name:  name,
		cfg:   cfg.normalized(),
		state: CircuitStateClosed,
		now:   time.Now,
	}
}

func (b *CircuitBreaker) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// Allow reports whether a call may go out. In half-open state only
// HalfOpenMaxReq probes are admitted at a time.
func (b *CircuitBreaker) Allow() error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	from := b.state
	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.enter(CircuitStateHalfOpen)
	}

	var err error
	switch b.state {
	case CircuitStateOpen:
		err = fmt.Errorf("%w: %s", ErrCircuitOpen, b.name)
	case CircuitStateHalfOpen:
		if b.probesInFlight >= b.cfg.HalfOpenMaxReq {
			err = fmt.Errorf("%w: %s probing", ErrCircuitOpen, b.name)
		} else {
			b.probesInFlight++
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return err
}

// Record classifies err with isFailure (nil means any error counts) and
// updates the breaker. Errors the caller caused, like a 4xx, should not trip it.
func (b *CircuitBreaker) Record(err error, isFailure func(error) bool) {
	if b == nil {
		return
	}
	if err != nil && (isFailure == nil || isFailure(err)) {
		b.RecordFailure()
		return
	}
	b.RecordSuccess()
}

func (b *CircuitBreaker) RecordSuccess() {
	if b == nil {
		return
	}

	b.mu.Lock()
	from := b.state
	switch b.state {
	case CircuitStateClosed:
		b.consecutiveFailures = 0
	case CircuitStateHalfOpen:
		b.releaseProbe()
		b.probeSuccesses++
		if b.probeSuccesses >= b.cfg.HalfOpenMaxReq && b.probesInFlight == 0 {
			b.enter(CircuitStateClosed)
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

func (b *CircuitBreaker) RecordFailure() {
	if b == nil {
		return
	}

	b.mu.Lock()
	from := b.state
	switch b.state {
	case CircuitStateClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.enter(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		b.releaseProbe()
		b.enter(CircuitStateOpen)
	case CircuitStateOpen:
		b.openedAt = b.now()
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// State reports the effective state; an open breaker past its timeout reads
// as half-open even before the next Allow moves it there.
func (b *CircuitBreaker) State() CircuitState {
	if b == nil {
		return CircuitStateClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) enter(state CircuitState) {
	b.state = state
	b.probesInFlight = 0
	b.probeSuccesses = 0
	switch state {
	case CircuitStateOpen:
		b.openedAt = b.now()
	case CircuitStateClosed:
		b.consecutiveFailures = 0
		b.openedAt = time.Time{}
	}
}

func (b *CircuitBreaker) releaseProbe() {
	if b.probesInFlight > 0 {
		b.probesInFlight--
	}
}

func (b *CircuitBreaker) notify(from, to CircuitState) {
	if from == to || b.cfg.OnStateChange == nil {
		return
	}
	b.cfg.OnStateChange(b.name, from, to)
}
