package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryOnce runs fn and, when it fails with a retryable error, runs it one more
// time after a short exponential backoff. Only use it for idempotent reads.
func RetryOnce[T any](ctx context.Context, retryable func(error) bool, fn func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = time.Second

	op := func() (T, error) {
		res, err := fn(ctx)
		if err != nil && !retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(2),
	)
}
