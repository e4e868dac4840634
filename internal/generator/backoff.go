package generator

import (
	"context"
	"time"
)

// BackoffConfig controls the retry policy applied to rate-limited producer
// calls. Only rate-limit/quota responses are retried; every other failure is
// surfaced immediately.
type BackoffConfig struct {
	// MaxRetries is the total attempt budget, including the first attempt.
	MaxRetries int
	// BaseDelay is the delay after the first failed attempt.
	BaseDelay time.Duration
	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration
}

// DefaultBackoff returns the standard retry policy: 5 attempts with delays
// of 2s, 4s, 8s, 16s capped at 60s.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		MaxRetries: 5,
		BaseDelay:  2 * time.Second,
		MaxDelay:   60 * time.Second,
	}
}

// DelayForAttempt returns the delay to wait after the given zero-based
// attempt fails: min(BaseDelay * 2^attempt, MaxDelay).
func (b BackoffConfig) DelayForAttempt(attempt int) time.Duration {
	delay := b.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= b.MaxDelay {
			return b.MaxDelay
		}
	}
	if delay > b.MaxDelay {
		return b.MaxDelay
	}
	return delay
}

// sleepFunc waits for the given duration or until the context is canceled.
// Injectable so tests can observe delays without waiting them out.
type sleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext is the production sleepFunc.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
