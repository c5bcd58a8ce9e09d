package durable

import (
	"context"
	"time"
)

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// backoff returns the delay before retry attempt i (zero based).
// Attempt 1 waits interval, attempt 2 waits 2x, and so on.
func backoff(i int, interval time.Duration) time.Duration {
	return time.Duration(i+1) * interval
}
