package ai

import (
	"errors"
	"time"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

// Action is what the router does after a failed attempt.
type Action int

const (
	// Retry calls the same target again after the returned delay.
	Retry Action = iota
	// NextTarget abandons the current target.
	NextTarget
)

// Policy is the pure retry decision table applied per target.
type Policy struct {
	Retries        int
	RateLimitDelay time.Duration
	RetryDelay     time.Duration
}

// DefaultPolicy is two retries per target with the production delays.
func DefaultPolicy() Policy {
	return Policy{Retries: 2, RateLimitDelay: 2 * time.Second, RetryDelay: time.Second}
}

// Attempts is the number of calls made against one target at most.
func (p Policy) Attempts() int { return max(p.Retries, 0) + 1 }

// Decide classifies err raised by the zero-based attempt. Rate limits back
// off linearly, a missing model moves on at once, and anything else waits
// RetryDelay unless it was the last attempt.
func (p Policy) Decide(attempt int, err error) (Action, time.Duration) {
	switch {
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return Retry, p.RateLimitDelay * time.Duration(attempt+1)
	case errors.Is(err, domain.ErrModelNotFound):
		return NextTarget, 0
	case attempt < p.Retries:
		return Retry, p.RetryDelay
	default:
		return Retry, 0
	}
}
