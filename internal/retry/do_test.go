package retry

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

func TestDoRetriesTransientErrors(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 5 * time.Second, MaxRetries: 2}

	calls := 0
	var delays []time.Duration
	done := make(chan error, 1)
	go func() {
		done <- Do(context.Background(), clock, p, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.SubmissionError("backend unavailable").Build()
			}
			return nil
		}, func(_ int, d time.Duration, _ error) { delays = append(delays, d) })
	}()

	for range 2 {
		require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
		clock.Advance(5 * time.Second)
	}
	require.NoError(t, <-done)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), clockwork.NewFakeClock(), DefaultPolicy(), func(context.Context) error {
		calls++
		return errors.ValidationError("rejected").Build()
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsPolicy(t *testing.T) {
	p := Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond}
	calls := 0
	err := Do(context.Background(), nil, p, func(context.Context) error {
		calls++
		return errors.NetworkError("timeout").Build()
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "zero retries means a single attempt")
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, clockwork.NewFakeClock(), DefaultPolicy(), func(context.Context) error {
		calls++
		return errors.NetworkError("timeout").Build()
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
