package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estatekg/relate/internal/config"
)

// transienter is the behavior a store error implements when a retry might
// succeed (lock contention, connection loss, timeouts).
type transienter interface {
	Transient() bool
}

// isTransient reports whether any error in the chain is marked retryable.
func isTransient(err error) bool {
	var t transienter
	return errors.As(err, &t) && t.Transient()
}

// withRetry runs fn, retrying transient failures with exponential backoff.
// Non-transient errors and context cancellation return immediately;
// exhausting the configured attempts escalates to the caller.
func withRetry(ctx context.Context, rc config.Retry, fn func() error) error {
	delay := rc.BaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
		if attempt >= rc.MaxAttempts {
			return fmt.Errorf("after %d attempts: %w", attempt, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > rc.MaxDelay {
			delay = rc.MaxDelay
		}
	}
}
