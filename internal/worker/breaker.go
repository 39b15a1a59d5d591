package worker

import (
	"errors"
	"sync"
	"time"
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

var ErrBreakerOpen = errors.New("circuit breaker is open")

type BreakerConfig struct {
	MaxFailures int
	// Cooldown is how long the breaker stays open before letting a trial
	// call through.
	Cooldown time.Duration
	// HalfOpenSuccesses closes the breaker again after that many trial
	// calls succeed in a row.
	HalfOpenSuccesses int
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:       5,
		Cooldown:          30 * time.Second,
		HalfOpenSuccesses: 1,
	}
}

// CircuitBreaker stops calling a failing dependency for a cooldown period.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       BreakerState
	failures    int
	successes   int
	lastFailure time.Time
	config      BreakerConfig
	now         func() time.Time
}

func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	defaults := DefaultBreakerConfig()
	if config.MaxFailures <= 0 {
		config.MaxFailures = defaults.MaxFailures
	}
	if config.Cooldown <= 0 {
		config.Cooldown = defaults.Cooldown
	}
	if config.HalfOpenSuccesses <= 0 {
		config.HalfOpenSuccesses = defaults.HalfOpenSuccesses
	}

	return &CircuitBreaker{config: config, now: time.Now}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrBreakerOpen
	}

	if err := fn(); err != nil {
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerOpen {
		if cb.now().Sub(cb.lastFailure) < cb.config.Cooldown {
			return false
		}
		cb.state = BreakerHalfOpen
		cb.successes = 0
	}
	return true
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()

	switch cb.state {
	case BreakerClosed:
		if cb.failures >= cb.config.MaxFailures {
			cb.state = BreakerOpen
		}
	case BreakerHalfOpen:
		cb.state = BreakerOpen
		cb.successes = 0
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		cb.failures = 0
	case BreakerHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.HalfOpenSuccesses {
			cb.state = BreakerClosed
			cb.failures = 0
			cb.successes = 0
		}
	}
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Stats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"state":            cb.state.String(),
		"failure_count":    cb.failures,
		"success_count":    cb.successes,
		"max_failures":     cb.config.MaxFailures,
		"cooldown_seconds": cb.config.Cooldown.Seconds(),
	}
}
