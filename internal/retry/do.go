package retry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

// OnRetry is called before each backoff wait with the upcoming retry number.
type OnRetry func(retry int, delay time.Duration, err error)

// Do runs fn until it succeeds, returns a non-retryable error, the policy is
// exhausted, or ctx is done. Only errors classified as retryable are retried.
// The last error is returned.
func Do(ctx context.Context, clock clockwork.Clock, p Policy, fn func(ctx context.Context) error, onRetry OnRetry) error {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !errors.IsRetryable(err) || attempt >= p.MaxRetries {
			return err
		}
		delay := p.Delay(attempt + 1)
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}
		select {
		case <-ctx.Done():
			return err
		case <-clock.After(delay):
		}
	}
}
