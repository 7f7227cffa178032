package service

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"sync"

	filterDomain "github.com/reshetovitsme/channel-relay/internal/modules/filter/domain"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	pairDomain "github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/relay/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/metrics"
	"golang.org/x/sync/errgroup"
)

// PairSource is the registry view the coordinator needs.
type PairSource interface {
	EnabledPairsForSource(sourceID int64) []pairDomain.ChannelPair
	SetEnabled(pairID int64, enabled bool) (pairDomain.ChannelPair, error)
}

// Mapper is the message mapping view the coordinator needs.
type Mapper interface {
	Record(pairID, sourceMessageID, destinationMessageID int64) error
	Lookup(pairID, sourceMessageID int64) (int64, bool, error)
	Remove(pairID, sourceMessageID int64) error
	Serialize(pairID, sourceMessageID int64, fn func() error) error
}

// Evaluator decides whether a message passes a filter config.
type Evaluator interface {
	Evaluate(msg messageDomain.InboundMessage, cfg pairDomain.FilterConfig) filterDomain.Verdict
}

// Scheduler runs a transport call with retries.
type Scheduler interface {
	Execute(ctx context.Context, destinationID int64, op domain.Operation, fn func(context.Context) error) error
}

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Pairs     PairSource
	Mapper    Mapper
	Filter    Evaluator
	Scheduler Scheduler
	Transport messageDomain.Transport
	Alerter   domain.Alerter
	Metrics   *metrics.Metrics
}

// Options tune a Coordinator.
type Options struct {
	// FailureThreshold consecutive failed deliveries disable a pair.
	FailureThreshold int
	// FanoutConcurrency bounds parallel deliveries of one message.
	FanoutConcurrency int
}

// Coordinator drives every inbound event through filter, delivery and
// mapping for each enabled pair of its source. It keeps no persistent state.
type Coordinator struct {
	Deps
	fanout   int
	failures *failureTracker

	mu     sync.Mutex
	seq    uint64
	scopes map[int64]map[uint64]context.CancelCauseFunc
}

// New creates a forwarding coordinator
func New(deps Deps, opts Options) *Coordinator {
	if opts.FanoutConcurrency < 1 {
		opts.FanoutConcurrency = 1
	}
	return &Coordinator{
		Deps:     deps,
		fanout:   opts.FanoutConcurrency,
		failures: newFailureTracker(opts.FailureThreshold),
		scopes:   make(map[int64]map[uint64]context.CancelCauseFunc),
	}
}

// Handle processes one event and returns the terminal outcome per pair, in
// registry order. A failure on one pair never stops the others.
func (c *Coordinator) Handle(ctx context.Context, event messageDomain.Event) []domain.Outcome {
	if c.Metrics != nil {
		c.Metrics.Events.WithLabelValues(event.Kind.String()).Inc()
	}

	pairs := c.Pairs.EnabledPairsForSource(event.Message.SourceID)
	if len(pairs) == 0 {
		return nil
	}

	var step func(context.Context, pairDomain.ChannelPair, messageDomain.Event) domain.Outcome
	switch event.Kind {
	case messageDomain.EventKindNew:
		step = c.forwardNew
	case messageDomain.EventKindEdit:
		step = c.propagateEdit
	case messageDomain.EventKindDelete:
		step = c.propagateDelete
	default:
		slog.Warn("Ignoring event of unknown kind", "kind", event.Kind)
		return nil
	}

	outcomes := make([]domain.Outcome, len(pairs))
	g := new(errgroup.Group)
	g.SetLimit(c.fanout)
	for i, pair := range pairs {
		g.Go(func() error {
			outcomes[i] = c.finish(ctx, pair, event, step(ctx, pair, event))
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// PairChanged cancels in-flight retries of a pair that is no longer enabled.
// It is registered as a registry listener.
func (c *Coordinator) PairChanged(pair pairDomain.ChannelPair, removed bool) {
	if pair.Enabled && !removed {
		return
	}

	c.mu.Lock()
	cancels := c.scopes[pair.ID]
	delete(c.scopes, pair.ID)
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel(domain.ErrPairDisabled)
	}
	if removed {
		c.failures.succeed(pair.ID)
	}
}

// FailureCounts returns the current consecutive failure count of each pair
// that has at least one.
func (c *Coordinator) FailureCounts() map[int64]int {
	return c.failures.snapshot()
}

func (c *Coordinator) forwardNew(ctx context.Context, pair pairDomain.ChannelPair, event messageDomain.Event) domain.Outcome {
	msg := event.Message
	out := domain.Outcome{PairID: pair.ID, State: domain.StateReceived}

	if verdict := c.Filter.Evaluate(msg, pair.Filter); !verdict.Allowed() {
		slog.Debug("Message blocked by filter",
			"pair_id", pair.ID, "source_id", msg.SourceID, "message_id", msg.MessageID, "rule", verdict.Rule)
		out.State = domain.StateBlocked
		return out
	}

	pctx, release := c.pairContext(ctx, pair.ID)
	defer release()

	err := c.Mapper.Serialize(pair.ID, msg.MessageID, func() error {
		if dest, found, err := c.Mapper.Lookup(pair.ID, msg.MessageID); err != nil {
			return err
		} else if found {
			out.State = domain.StateDuplicate
			out.DestinationMessageID = dest
			return nil
		}

		dest, err := c.send(pctx, pair, c.withReply(pair, msg, messageDomain.ContentOf(msg)))
		if err != nil {
			return err
		}
		out.State = domain.StateSent
		out.DestinationMessageID = dest

		if err := c.Mapper.Record(pair.ID, msg.MessageID, dest); err != nil {
			// Delivered but unmapped: later edits will be no-ops.
			slog.Error("Failed to record mapping",
				"pair_id", pair.ID, "message_id", msg.MessageID, "destination_message_id", dest, "error", err)
			out.Err = err
			return nil
		}
		out.State = domain.StateMapped
		return nil
	})
	if err != nil {
		return c.deliveryError(pctx, out, err)
	}
	return out
}

func (c *Coordinator) propagateEdit(ctx context.Context, pair pairDomain.ChannelPair, event messageDomain.Event) domain.Outcome {
	original := event.TargetID()
	out := domain.Outcome{PairID: pair.ID, State: domain.StateReceived}

	content := messageDomain.ContentOf(event.Message)
	content.MessageID = original

	pctx, release := c.pairContext(ctx, pair.ID)
	defer release()

	err := c.Mapper.Serialize(pair.ID, original, func() error {
		dest, found, err := c.Mapper.Lookup(pair.ID, original)
		if err != nil {
			return err
		}
		if !found {
			out.State = domain.StateNoop
			return nil
		}

		err = c.Scheduler.Execute(pctx, pair.DestinationID, domain.OperationEdit, func(ctx context.Context) error {
			return c.Transport.Edit(ctx, pair.DestinationID, dest, content)
		})
		switch {
		case err == nil, stdErrors.Is(err, messageDomain.ErrNotModified):
			out.State = domain.StateMapped
			out.DestinationMessageID = dest
			return nil
		case !stdErrors.Is(err, messageDomain.ErrMessageGone):
			return err
		}

		// The destination copy was deleted; post the edited version again.
		reposted, err := c.send(pctx, pair, c.withReply(pair, event.Message, content))
		if err != nil {
			return err
		}
		out.State = domain.StateSent
		out.DestinationMessageID = reposted
		if err := c.Mapper.Record(pair.ID, original, reposted); err != nil {
			return err
		}
		slog.Info("Destination message reposted after edit",
			"pair_id", pair.ID, "message_id", original, "old_destination_message_id", dest, "destination_message_id", reposted)
		out.State = domain.StateMapped
		return nil
	})
	if err != nil {
		return c.deliveryError(pctx, out, err)
	}
	return out
}

func (c *Coordinator) propagateDelete(ctx context.Context, pair pairDomain.ChannelPair, event messageDomain.Event) domain.Outcome {
	target := event.TargetID()
	out := domain.Outcome{PairID: pair.ID, State: domain.StateReceived}

	pctx, release := c.pairContext(ctx, pair.ID)
	defer release()

	err := c.Mapper.Serialize(pair.ID, target, func() error {
		dest, found, err := c.Mapper.Lookup(pair.ID, target)
		if err != nil {
			return err
		}
		if !found {
			out.State = domain.StateNoop
			return nil
		}

		err = c.Scheduler.Execute(pctx, pair.DestinationID, domain.OperationDelete, func(ctx context.Context) error {
			return c.Transport.Delete(ctx, pair.DestinationID, dest)
		})
		if err != nil && !stdErrors.Is(err, messageDomain.ErrMessageGone) {
			return err
		}

		out.DestinationMessageID = dest
		if err := c.Mapper.Remove(pair.ID, target); err != nil {
			return err
		}
		out.State = domain.StateRemoved
		return nil
	})
	if err != nil {
		return c.deliveryError(pctx, out, err)
	}
	return out
}

// withReply threads content under the forwarded copy of the message msg
// replies to. Without a mapping the post goes out unthreaded.
func (c *Coordinator) withReply(pair pairDomain.ChannelPair, msg messageDomain.InboundMessage, content messageDomain.Content) messageDomain.Content {
	if msg.ReplyTo == nil {
		return content
	}
	dest, found, err := c.Mapper.Lookup(pair.ID, *msg.ReplyTo)
	if err != nil {
		slog.Warn("Failed to look up reply target, sending unthreaded",
			"pair_id", pair.ID, "message_id", msg.MessageID, "reply_to", *msg.ReplyTo, "error", err)
		return content
	}
	if found {
		content.ReplyTo = dest
	}
	return content
}

func (c *Coordinator) send(ctx context.Context, pair pairDomain.ChannelPair, content messageDomain.Content) (int64, error) {
	var dest int64
	err := c.Scheduler.Execute(ctx, pair.DestinationID, domain.OperationSend, func(ctx context.Context) error {
		id, err := c.Transport.Send(ctx, pair.DestinationID, content)
		dest = id
		return err
	})
	return dest, err
}

// deliveryError classifies a failed step. Cancellation aborts; anything else fails.
func (c *Coordinator) deliveryError(pctx context.Context, out domain.Outcome, err error) domain.Outcome {
	out.Err = err
	if pctx.Err() != nil {
		out.State = domain.StateAborted
		return out
	}
	out.State = domain.StateFailed
	return out
}

// finish updates failure counters, metrics and logs for one outcome.
func (c *Coordinator) finish(ctx context.Context, pair pairDomain.ChannelPair, event messageDomain.Event, out domain.Outcome) domain.Outcome {
	if c.Metrics != nil {
		c.Metrics.Outcome(pair.ID, out.State.String())
	}

	switch out.State {
	case domain.StateMapped, domain.StateRemoved, domain.StateSent:
		c.failures.succeed(pair.ID)
	case domain.StateFailed:
		c.recordFailure(ctx, pair, event, out.Err)
	case domain.StateAborted:
		slog.Info("Delivery aborted",
			"pair_id", pair.ID, "message_id", event.TargetID(), "kind", event.Kind, "reason", out.Err)
	}
	return out
}

func (c *Coordinator) recordFailure(ctx context.Context, pair pairDomain.ChannelPair, event messageDomain.Event, cause error) {
	count, tripped := c.failures.fail(pair.ID)
	slog.Error("Delivery failed",
		"pair_id", pair.ID,
		"destination_id", pair.DestinationID,
		"message_id", event.TargetID(),
		"kind", event.Kind,
		"consecutive_failures", count,
		"permanent", messageDomain.IsPermanent(cause),
		"error", cause,
	)

	op := operationFor(event.Kind)
	if c.Alerter != nil {
		c.Alerter.DeliveryFailed(ctx, pair, op, cause)
	}
	if !tripped {
		return
	}

	disabled, err := c.Pairs.SetEnabled(pair.ID, false)
	if err != nil {
		slog.Error("Failed to auto-disable pair", "pair_id", pair.ID, "error", err)
		return
	}
	if c.Metrics != nil {
		c.Metrics.AutoDisabled.Inc()
	}
	slog.Warn("Pair auto-disabled after consecutive failures", "pair_id", pair.ID, "failures", count)
	if c.Alerter != nil {
		c.Alerter.PairDisabled(ctx, disabled, count, cause)
	}
}

// pairContext derives a context that PairChanged cancels when the pair is
// disabled. release must be called when the work is done.
func (c *Coordinator) pairContext(parent context.Context, pairID int64) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)

	c.mu.Lock()
	c.seq++
	id := c.seq
	if c.scopes[pairID] == nil {
		c.scopes[pairID] = make(map[uint64]context.CancelCauseFunc)
	}
	c.scopes[pairID][id] = cancel
	c.mu.Unlock()

	return ctx, func() {
		c.mu.Lock()
		if scope := c.scopes[pairID]; scope != nil {
			delete(scope, id)
			if len(scope) == 0 {
				delete(c.scopes, pairID)
			}
		}
		c.mu.Unlock()
		cancel(nil)
	}
}

func operationFor(kind messageDomain.EventKind) domain.Operation {
	switch kind {
	case messageDomain.EventKindEdit:
		return domain.OperationEdit
	case messageDomain.EventKindDelete:
		return domain.OperationDelete
	}
	return domain.OperationSend
}
