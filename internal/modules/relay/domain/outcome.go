package domain

import (
	"context"
	"errors"
	"fmt"

	pairDomain "github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
)

// ErrPairDisabled cancels in-flight work of a pair that was disabled or removed.
var ErrPairDisabled = errors.New("pair disabled")

// Outcome is the terminal state reached by one event for one pair.
type Outcome struct {
	PairID               int64
	State                State
	DestinationMessageID int64
	Err                  error
}

// Terminal reports whether no further transition can follow.
func (o Outcome) Terminal() bool {
	switch o.State {
	case StateBlocked, StateFailed, StateMapped, StateRemoved, StateDuplicate, StateNoop, StateAborted:
		return true
	}
	return false
}

// ExhaustedError is a transient failure that outlived every retry attempt.
type ExhaustedError struct {
	Attempts uint
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Alerter receives operator-visible notices about pairs.
type Alerter interface {
	PairDisabled(ctx context.Context, pair pairDomain.ChannelPair, failures int, cause error)
	DeliveryFailed(ctx context.Context, pair pairDomain.ChannelPair, op Operation, cause error)
}
