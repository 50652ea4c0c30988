package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/snapdish/snapdish-backend/internal/types"
)

// RetryPolicy is the shared retry configuration injected into both AI
// clients: bounded attempts, fixed delay, and a predicate deciding which
// errors are worth retrying. Context cancellation always stops retrying.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy retries transient network failures up to 3 attempts
// with a fixed 2s delay
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
		Retryable:   types.IsRetryable,
	}
}

// Do runs op, retrying per the policy. The error returned is the last
// attempt's error.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	maxRetries := uint64(0)
	if p.MaxAttempts > 1 {
		maxRetries = uint64(p.MaxAttempts - 1)
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), maxRetries),
		ctx,
	)

	return backoff.Retry(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}
