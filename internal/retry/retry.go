// Package retry runs an operation a bounded number of times with a growing
// delay between attempts.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Do invokes fn up to attempts times, sleeping attempt*delay between tries.
// It stops early when the context is done.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * delay):
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
