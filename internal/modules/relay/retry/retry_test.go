package retry

import (
	"context"
	stdErrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/relay/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts uint) Policy {
	return Policy{
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		MaxAttempts: attempts,
	}
}

func TestExecute_SucceedsAfterTransientErrors(t *testing.T) {
	m := metrics.New()
	s := New(fastPolicy(5), m)

	var calls atomic.Int32
	err := s.Execute(context.Background(), 1, domain.OperationSend, func(context.Context) error {
		if calls.Add(1) < 3 {
			return stdErrors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SendAttempts.WithLabelValues("send")))
}

func TestExecute_ExhaustsAttempts(t *testing.T) {
	s := New(fastPolicy(4), nil)
	transient := stdErrors.New("timeout")

	var calls atomic.Int32
	err := s.Execute(context.Background(), 1, domain.OperationSend, func(context.Context) error {
		calls.Add(1)
		return transient
	})

	var exhausted *domain.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, uint(4), exhausted.Attempts)
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, int32(4), calls.Load())
}

func TestExecute_PermanentErrorsAreNotRetried(t *testing.T) {
	for _, permanent := range []error{
		messageDomain.ErrPermissionDenied,
		messageDomain.ErrUnreachable,
		messageDomain.ErrMessageGone,
	} {
		t.Run(permanent.Error(), func(t *testing.T) {
			s := New(fastPolicy(5), nil)

			var calls atomic.Int32
			err := s.Execute(context.Background(), 1, domain.OperationEdit, func(context.Context) error {
				calls.Add(1)
				return permanent
			})

			assert.ErrorIs(t, err, permanent)
			var exhausted *domain.ExhaustedError
			assert.False(t, stdErrors.As(err, &exhausted))
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestExecute_RateLimitOverridesBackoff(t *testing.T) {
	// Computed backoff would be far longer than the platform's delay.
	s := New(Policy{BaseDelay: time.Hour, MaxDelay: time.Hour, MaxAttempts: 3}, nil)

	var calls atomic.Int32
	start := time.Now()
	err := s.Execute(context.Background(), 1, domain.OperationSend, func(context.Context) error {
		if calls.Add(1) == 1 {
			return &messageDomain.RateLimitedError{RetryAfter: 20 * time.Millisecond}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Less(t, elapsed, 10*time.Second)
}

func TestExecute_CancelAbortsBackoffSleep(t *testing.T) {
	s := New(Policy{BaseDelay: time.Hour, MaxDelay: time.Hour, MaxAttempts: 5}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Execute(ctx, 1, domain.OperationSend, func(context.Context) error {
			return stdErrors.New("flaky")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Execute did not return after cancel")
	}
}

func TestExecute_RateLimiterPacesDestination(t *testing.T) {
	s := New(Policy{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxAttempts: 1, RatePerSecond: 20, Burst: 1}, nil)

	start := time.Now()
	for range 3 {
		require.NoError(t, s.Execute(context.Background(), 7, domain.OperationSend, func(context.Context) error { return nil }))
	}
	// Two waits of ~50ms after the first token.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)

	// Another destination has its own bucket.
	start = time.Now()
	require.NoError(t, s.Execute(context.Background(), 8, domain.OperationSend, func(context.Context) error { return nil }))
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}
