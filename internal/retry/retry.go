// Package retry wraps the backoff policy shared by all outbound API calls:
// a small bounded attempt count with exponential delay, cancelled by context.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Do runs fn up to attempts times with exponential backoff between failures.
// Wrap an error with backoff.Permanent to stop early.
func Do(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 30 * time.Second

	bounded := backoff.WithMaxRetries(policy, uint64(attempts-1))
	return backoff.Retry(fn, backoff.WithContext(bounded, ctx))
}
