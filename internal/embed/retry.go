package embed

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/ololopopova/ai-chat/internal/errors"
)

// Retry defaults for provider calls.
const (
	DefaultMaxAttempts = 3
	DefaultMinDelay    = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultMultiplier  = 2.0
)

// RetryPolicy configures bounded retries with exponential backoff.
// Only errors accepted by Retryable are retried; everything else fails
// immediately.
type RetryPolicy struct {
	MaxAttempts int                   // Total attempts, including the first
	MinDelay    time.Duration         // Delay before the first retry
	MaxDelay    time.Duration         // Cap on the backoff delay
	Multiplier  float64               // Backoff growth factor
	Retryable   func(err error) bool  // Predicate for transient failures
}

// DefaultRetryPolicy retries only transient provider failures
// (connection/timeout classes per the error taxonomy).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		MinDelay:    DefaultMinDelay,
		MaxDelay:    DefaultMaxDelay,
		Multiplier:  DefaultMultiplier,
		Retryable:   apperrors.IsRetryable,
	}
}

// Do executes fn, retrying transient failures with exponential backoff.
// The context is checked before every attempt and during backoff waits, so
// cancellation is honored promptly.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	delay := p.MinDelay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
