// Package retry wraps transport calls with bounded exponential backoff and a
// per-destination send rate.
package retry

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/relay/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/metrics"
	"golang.org/x/time/rate"
)

// Policy bounds the retry loop.
type Policy struct {
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	MaxAttempts   uint
	RatePerSecond float64
	Burst         int
}

// Scheduler runs transport operations under Policy. Safe for concurrent use.
type Scheduler struct {
	policy  Policy
	metrics *metrics.Metrics

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

// New creates a retry scheduler; m may be nil.
func New(policy Policy, m *metrics.Metrics) *Scheduler {
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = 1
	}
	if policy.Burst < 1 {
		policy.Burst = 1
	}
	return &Scheduler{
		policy:   policy,
		metrics:  m,
		limiters: make(map[int64]*rate.Limiter),
	}
}

// Execute calls fn until it succeeds, fails permanently, runs out of attempts
// or ctx is done. A RateLimitedError replaces the computed backoff with the
// platform's delay. Cancelling ctx interrupts the wait between attempts.
//
// The returned error is one of: ctx's cause, the permanent error as-is, or an
// *domain.ExhaustedError wrapping the last transient error.
func (s *Scheduler) Execute(ctx context.Context, destinationID int64, op domain.Operation, fn func(context.Context) error) error {
	limiter := s.limiter(destinationID)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.policy.BaseDelay
	b.MaxInterval = s.policy.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.2

	var (
		attempts uint
		lastErr  error
	)
	started := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveDelivery(op.String(), started)
		}
	}()

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := limiter.Wait(ctx); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		attempts++
		if s.metrics != nil {
			s.metrics.SendAttempts.WithLabelValues(op.String()).Inc()
		}

		err := fn(ctx)
		lastErr = err
		if err == nil {
			return struct{}{}, nil
		}

		var limited *messageDomain.RateLimitedError
		switch {
		case stdErrors.As(err, &limited):
			return struct{}{}, &backoff.RetryAfterError{Duration: limited.RetryAfter}
		case messageDomain.IsPermanent(err), ctx.Err() != nil:
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.policy.MaxAttempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Transport call failed, retrying",
				"op", op.String(),
				"destination_id", destinationID,
				"attempt", attempts,
				"retry_in", next,
				"error", lastErr,
			)
		}),
	)
	if err == nil {
		return nil
	}

	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	if lastErr == nil {
		// The limiter refused to wait.
		return err
	}
	if messageDomain.IsPermanent(lastErr) {
		return lastErr
	}
	return &domain.ExhaustedError{Attempts: attempts, Err: lastErr}
}

func (s *Scheduler) limiter(destinationID int64) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[destinationID]
	if !ok {
		limit := rate.Inf
		if s.policy.RatePerSecond > 0 {
			limit = rate.Limit(s.policy.RatePerSecond)
		}
		l = rate.NewLimiter(limit, s.policy.Burst)
		s.limiters[destinationID] = l
	}
	return l
}
