package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnreachable means the destination chat is gone or unknown; plain network
	// failures are returned as-is and stay retryable.
	ErrUnreachable = errors.New("destination unreachable")
	// ErrMessageGone means the destination message no longer exists.
	ErrMessageGone = errors.New("destination message gone")
	ErrNotModified = errors.New("message not modified")
)

// RateLimitedError carries the platform-mandated delay before the next attempt.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// IsPermanent reports whether retrying err cannot succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrUnreachable) ||
		errors.Is(err, ErrMessageGone) ||
		errors.Is(err, ErrNotModified)
}

// Transport is the outbound side of the messaging platform.
type Transport interface {
	Send(ctx context.Context, destinationID int64, content Content) (int64, error)
	Edit(ctx context.Context, destinationID, destinationMessageID int64, content Content) error
	Delete(ctx context.Context, destinationID, destinationMessageID int64) error
}
