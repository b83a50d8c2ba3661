package util

import (
	"context"
	"time"
)

// RetryOpts configures Retry. With Backoff set, the delay doubles after
// every failed attempt.
type RetryOpts struct {
	Attempts int
	Delay    time.Duration
	Backoff  bool
}

// Retry calls fn until it succeeds, returns an error for which retryable is
// false, the attempts are exhausted or ctx is done. The last error of fn is
// returned. A nil retryable retries every error.
func Retry(
	ctx context.Context,
	opts RetryOpts,
	retryable func(error) bool,
	fn func(ctx context.Context) error,
) error {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := opts.Delay

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		if opts.Backoff {
			delay *= 2
		}
	}
	return err
}
