package service

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/relay/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/metrics"
)

// ErrDispatcherClosed is returned by Submit once Stop has begun.
var ErrDispatcherClosed = stdErrors.New("dispatcher closed")

// EventHandler processes one event to completion.
type EventHandler interface {
	Handle(ctx context.Context, event messageDomain.Event) []domain.Outcome
}

// Dispatcher fans inbound events out to a fixed pool of workers. Events of one
// source always land on the same worker, so they are handled in arrival order.
type Dispatcher struct {
	handler EventHandler
	metrics *metrics.Metrics
	queues  []chan messageDomain.Event

	mu       sync.RWMutex
	closed   bool
	stopping chan struct{}
	stopOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher with workers partitions of queueSize each.
func NewDispatcher(handler EventHandler, workers, queueSize int, m *metrics.Metrics) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	queues := make([]chan messageDomain.Event, workers)
	for i := range queues {
		queues[i] = make(chan messageDomain.Event, queueSize)
	}

	return &Dispatcher{
		handler:  handler,
		metrics:  m,
		queues:   queues,
		stopping: make(chan struct{}),
	}
}

// Start launches the workers. Cancelling ctx aborts in-flight deliveries.
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i, q := range d.queues {
		d.wg.Add(1)
		go d.work(i, q)
	}
	slog.Info("Dispatcher started", "workers", len(d.queues))
}

// Submit enqueues an event, blocking while its partition is full.
func (d *Dispatcher) Submit(ctx context.Context, event messageDomain.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	// Counted before the send so a fast worker never takes the gauge below zero.
	d.adjustDepth(1)
	select {
	case d.queues[d.partition(event.Message.SourceID)] <- event:
		return nil
	case <-d.stopping:
		d.adjustDepth(-1)
		return ErrDispatcherClosed
	case <-ctx.Done():
		d.adjustDepth(-1)
		return ctx.Err()
	}
}

// Stop refuses new events and lets workers drain their queues. If ctx ends
// first, in-flight work is cancelled.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.stopOnce.Do(func() { close(d.stopping) })

	// Blocked Submit calls release the read lock once stopping is closed.
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		slog.Warn("Dispatcher drain timed out, cancelling in-flight work")
		if d.cancel != nil {
			d.cancel()
		}
		<-drained
	}
	if d.cancel != nil {
		d.cancel()
	}
	slog.Info("Dispatcher stopped")
}

// QueueDepth returns the number of events waiting across all partitions.
func (d *Dispatcher) QueueDepth() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	depth := 0
	for _, q := range d.queues {
		depth += len(q)
	}
	return depth
}

func (d *Dispatcher) adjustDepth(delta float64) {
	if d.metrics != nil {
		d.metrics.QueueDepth.Add(delta)
	}
}

func (d *Dispatcher) partition(sourceID int64) int {
	return int(xxhash.Sum64String(strconv.FormatInt(sourceID, 10)) % uint64(len(d.queues)))
}

func (d *Dispatcher) work(id int, queue <-chan messageDomain.Event) {
	defer d.wg.Done()

	for event := range queue {
		d.adjustDepth(-1)
		outcomes := d.handler.Handle(d.ctx, event)
		slog.Debug("Event handled",
			"worker", id,
			"kind", event.Kind,
			"source_id", event.Message.SourceID,
			"message_id", event.TargetID(),
			"pairs", len(outcomes),
		)
	}
}
