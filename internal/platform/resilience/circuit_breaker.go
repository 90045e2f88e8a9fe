package resilience

import (
	"context"
	"errors"
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

// CircuitBreaker guards the pick API. Calls run through Execute, and the
// classifier given at construction decides which errors mean the API is down.
// Other errors still prove the API answered. Abandoned calls prove nothing and
// only hand back their half-open slot.
type CircuitBreaker struct {
	isFailure func(error) bool
	threshold int
	cooldown  time.Duration
	trialMax  int
	now       func() time.Time

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
	trials   int
	trialsOK int
}

// NewCircuitBreaker builds a closed breaker. A nil isFailure counts every error.
func NewCircuitBreaker(threshold int, cooldown time.Duration, trialMax int, isFailure func(error) bool) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	if cooldown <= 0 {
		cooldown = 15 * time.Second
	}
	if trialMax < 1 {
		trialMax = 1
	}
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		isFailure: isFailure,
		threshold: threshold,
		cooldown:  cooldown,
		trialMax:  trialMax,
		now:       time.Now,
		state:     CircuitStateClosed,
	}
}

// Execute runs fn unless the breaker is open and records its outcome.
func (b *CircuitBreaker) Execute(fn func() error) error {
	if err := b.acquire(); err != nil {
		return err
	}

	err := fn()
	switch {
	case err == nil:
		b.succeed()
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		b.abandon()
	case b.isFailure(err):
		b.fail()
	default:
		b.succeed()
	}
	return err
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ErrCircuitOpen
		}
		b.setState(CircuitStateHalfOpen)
	}
	if b.state == CircuitStateHalfOpen {
		if b.trials >= b.trialMax {
			return ErrCircuitOpen
		}
		b.trials++
	}
	return nil
}

func (b *CircuitBreaker) succeed() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != CircuitStateHalfOpen {
		b.failures = 0
		return
	}
	b.releaseTrialLocked()
	b.trialsOK++
	if b.trialsOK >= b.trialMax && b.trials == 0 {
		b.setState(CircuitStateClosed)
	}
}

func (b *CircuitBreaker) fail() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.setState(CircuitStateOpen)
		}
	case CircuitStateHalfOpen, CircuitStateOpen:
		b.setState(CircuitStateOpen)
	}
}

func (b *CircuitBreaker) abandon() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateHalfOpen {
		b.releaseTrialLocked()
	}
}

func (b *CircuitBreaker) releaseTrialLocked() {
	if b.trials > 0 {
		b.trials--
	}
}

func (b *CircuitBreaker) setState(state CircuitState) {
	b.state = state
	b.failures = 0
	b.trials = 0
	b.trialsOK = 0
	b.openedAt = time.Time{}
	if state == CircuitStateOpen {
		b.openedAt = b.now()
	}
}
