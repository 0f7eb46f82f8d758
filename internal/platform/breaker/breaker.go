// Package breaker provides a minimal circuit breaker for outbound calls to
// the payment gateway.
package breaker

import (
	"errors"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit breaker is open")

// Breaker trips after maxFailures consecutive failures and stays open for
// the cooldown period. After the cooldown a single probe request is let
// through; its outcome closes or re-opens the circuit.
type Breaker struct {
	mu          sync.Mutex
	maxFailures int
	cooldown    time.Duration

	failures int
	openedAt time.Time
	probing  bool
}

func New(maxFailures int, cooldown time.Duration) *Breaker {
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
	}
}

// Allow reports whether a request may proceed right now.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.maxFailures {
		return nil
	}
	if time.Since(b.openedAt) < b.cooldown {
		return ErrOpen
	}
	if b.probing {
		return ErrOpen
	}
	b.probing = true
	return nil
}

// Record feeds the outcome of a permitted request back into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if err == nil {
		b.failures = 0
		return
	}

	b.failures++
	if b.failures >= b.maxFailures {
		b.openedAt = time.Now()
	}
}
