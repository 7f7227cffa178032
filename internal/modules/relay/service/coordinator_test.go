package service

import (
	"context"
	stdErrors "errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	filterService "github.com/reshetovitsme/channel-relay/internal/modules/filter/service"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	messageRepo "github.com/reshetovitsme/channel-relay/internal/modules/message/repository"
	messageService "github.com/reshetovitsme/channel-relay/internal/modules/message/service"
	pairDomain "github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
	pairRepo "github.com/reshetovitsme/channel-relay/internal/modules/pair/repository"
	pairService "github.com/reshetovitsme/channel-relay/internal/modules/pair/service"
	"github.com/reshetovitsme/channel-relay/internal/modules/relay/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/relay/retry"
	"github.com/reshetovitsme/channel-relay/internal/shared/metrics"
	"github.com/reshetovitsme/channel-relay/internal/shared/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sourceID = int64(-1001)
	destA    = int64(-2001)
	destB    = int64(-2002)
)

type transportCall struct {
	op            domain.Operation
	destinationID int64
	messageID     int64
	content       messageDomain.Content
}

type fakeTransport struct {
	mu     sync.Mutex
	calls  []transportCall
	nextID int64

	sendErr   func(destinationID int64) error
	editErr   func(destinationID int64) error
	deleteErr func(destinationID int64) error
}

func (f *fakeTransport) Send(_ context.Context, destinationID int64, content messageDomain.Content) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, transportCall{op: domain.OperationSend, destinationID: destinationID, content: content})
	if f.sendErr != nil {
		if err := f.sendErr(destinationID); err != nil {
			return 0, err
		}
	}
	f.nextID++
	return 500 + f.nextID, nil
}

func (f *fakeTransport) Edit(_ context.Context, destinationID, messageID int64, content messageDomain.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, transportCall{op: domain.OperationEdit, destinationID: destinationID, messageID: messageID, content: content})
	if f.editErr != nil {
		return f.editErr(destinationID)
	}
	return nil
}

func (f *fakeTransport) Delete(_ context.Context, destinationID, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, transportCall{op: domain.OperationDelete, destinationID: destinationID, messageID: messageID})
	if f.deleteErr != nil {
		return f.deleteErr(destinationID)
	}
	return nil
}

func (f *fakeTransport) callsOf(op domain.Operation) []transportCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []transportCall
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeTransport) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeAlerter struct {
	mu       sync.Mutex
	disabled []int64
	failures int
}

func (a *fakeAlerter) PairDisabled(_ context.Context, pair pairDomain.ChannelPair, _ int, _ error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disabled = append(a.disabled, pair.ID)
}

func (a *fakeAlerter) DeliveryFailed(context.Context, pairDomain.ChannelPair, domain.Operation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures++
}

type harness struct {
	coordinator *Coordinator
	pairs       *pairService.Service
	mapper      *messageService.Service
	transport   *fakeTransport
	alerter     *fakeAlerter
	metrics     *metrics.Metrics
}

func newHarness(t *testing.T, policy retry.Policy, threshold int) *harness {
	t.Helper()

	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "relay.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close(db) })

	pr, err := pairRepo.NewSQLiteStorage(db)
	require.NoError(t, err)
	mr, err := messageRepo.NewSQLiteStorage(db)
	require.NoError(t, err)

	pairs := pairService.New(pr)
	require.NoError(t, pairs.Load())

	h := &harness{
		pairs:     pairs,
		mapper:    messageService.New(mr),
		transport: &fakeTransport{},
		alerter:   &fakeAlerter{},
		metrics:   metrics.New(),
	}
	h.coordinator = New(Deps{
		Pairs:     pairs,
		Mapper:    h.mapper,
		Filter:    filterService.New(time.UTC, true),
		Scheduler: retry.New(policy, h.metrics),
		Transport: h.transport,
		Alerter:   h.alerter,
		Metrics:   h.metrics,
	}, Options{FailureThreshold: threshold, FanoutConcurrency: 4})
	pairs.Watch(h.coordinator.PairChanged)
	return h
}

func fastRetry() retry.Policy {
	return retry.Policy{BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, MaxAttempts: 2}
}

func (h *harness) addPair(t *testing.T, destinationID int64, filter pairDomain.FilterConfig) pairDomain.ChannelPair {
	t.Helper()
	pair, err := h.pairs.Upsert(pairDomain.ChannelPair{
		SourceID:      sourceID,
		DestinationID: destinationID,
		Enabled:       true,
		Filter:        filter,
	})
	require.NoError(t, err)
	return pair
}

func newMessage(id int64, text string) messageDomain.InboundMessage {
	return messageDomain.InboundMessage{
		SourceID:    sourceID,
		MessageID:   id,
		Timestamp:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		MediaKind:   messageDomain.MediaKindText,
		TextContent: text,
	}
}

func TestHandle_NewMessageIsForwardedAndMapped(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	pair := h.addPair(t, destA, pairDomain.FilterConfig{})

	outcomes := h.coordinator.Handle(context.Background(), messageDomain.NewEvent(newMessage(100, "hello")))

	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.StateMapped, outcomes[0].State)
	assert.True(t, outcomes[0].Terminal())

	sends := h.transport.callsOf(domain.OperationSend)
	require.Len(t, sends, 1)
	assert.Equal(t, destA, sends[0].destinationID)
	assert.Equal(t, "hello", sends[0].content.Text)

	dest, found, err := h.mapper.Lookup(pair.ID, 100)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, outcomes[0].DestinationMessageID, dest)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Events.WithLabelValues("new")))
}

func TestHandle_SameNewEventTwiceSendsOnce(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	h.addPair(t, destA, pairDomain.FilterConfig{})

	event := messageDomain.NewEvent(newMessage(100, "hello"))
	first := h.coordinator.Handle(context.Background(), event)
	second := h.coordinator.Handle(context.Background(), event)

	assert.Equal(t, domain.StateMapped, first[0].State)
	assert.Equal(t, domain.StateDuplicate, second[0].State)
	assert.Equal(t, first[0].DestinationMessageID, second[0].DestinationMessageID)
	assert.Len(t, h.transport.callsOf(domain.OperationSend), 1)

	count, err := h.mapper.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestHandle_ConcurrentDuplicatesSendOnce(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	h.addPair(t, destA, pairDomain.FilterConfig{})

	event := messageDomain.NewEvent(newMessage(100, "hello"))
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.coordinator.Handle(context.Background(), event)
		}()
	}
	wg.Wait()

	assert.Len(t, h.transport.callsOf(domain.OperationSend), 1)
}

func TestHandle_EditUsesExistingMapping(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	pair := h.addPair(t, destA, pairDomain.FilterConfig{})
	require.Equal(t, int64(1), pair.ID)
	require.NoError(t, h.mapper.Record(1, 100, 555))

	edited := newMessage(100, "hello, edited")
	outcomes := h.coordinator.Handle(context.Background(), messageDomain.EditEvent(edited, 100))

	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.StateMapped, outcomes[0].State)

	edits := h.transport.callsOf(domain.OperationEdit)
	require.Len(t, edits, 1)
	assert.Equal(t, destA, edits[0].destinationID)
	assert.Equal(t, int64(555), edits[0].messageID)
	assert.Equal(t, "hello, edited", edits[0].content.Text)
	assert.Empty(t, h.transport.callsOf(domain.OperationSend))

	count, err := h.mapper.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestHandle_EditBypassesFilters(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	pair := h.addPair(t, destA, pairDomain.FilterConfig{
		Keyword: &pairDomain.KeywordRule{Patterns: []string{"spam"}, Mode: pairDomain.ModeBlock},
	})
	require.NoError(t, h.mapper.Record(pair.ID, 100, 555))

	outcomes := h.coordinator.Handle(context.Background(), messageDomain.EditEvent(newMessage(100, "now it is spam"), 100))

	assert.Equal(t, domain.StateMapped, outcomes[0].State)
	assert.Len(t, h.transport.callsOf(domain.OperationEdit), 1)
}

func TestHandle_EditOfUnforwardedMessageIsNoop(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	h.addPair(t, destA, pairDomain.FilterConfig{})

	outcomes := h.coordinator.Handle(context.Background(), messageDomain.EditEvent(newMessage(100, "x"), 100))

	assert.Equal(t, domain.StateNoop, outcomes[0].State)
	assert.Zero(t, h.transport.total())
}

func TestHandle_ReplyIsThreadedPerDestination(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	pairA := h.addPair(t, destA, pairDomain.FilterConfig{})
	pairB := h.addPair(t, destB, pairDomain.FilterConfig{})
	ctx := context.Background()

	h.coordinator.Handle(ctx, messageDomain.NewEvent(newMessage(100, "parent")))
	parentA, found, err := h.mapper.Lookup(pairA.ID, 100)
	require.NoError(t, err)
	require.True(t, found)
	parentB, found, err := h.mapper.Lookup(pairB.ID, 100)
	require.NoError(t, err)
	require.True(t, found)

	reply := newMessage(101, "child")
	parentID := int64(100)
	reply.ReplyTo = &parentID
	h.coordinator.Handle(ctx, messageDomain.NewEvent(reply))

	threaded := map[int64]int64{}
	for _, call := range h.transport.callsOf(domain.OperationSend) {
		if call.content.MessageID == 101 {
			threaded[call.destinationID] = call.content.ReplyTo
		}
	}
	assert.Equal(t, map[int64]int64{destA: parentA, destB: parentB}, threaded)
}

func TestHandle_ReplyToUnforwardedMessageIsSentUnthreaded(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	h.addPair(t, destA, pairDomain.FilterConfig{})

	reply := newMessage(101, "child")
	parentID := int64(99)
	reply.ReplyTo = &parentID
	outcomes := h.coordinator.Handle(context.Background(), messageDomain.NewEvent(reply))

	assert.Equal(t, domain.StateMapped, outcomes[0].State)
	sends := h.transport.callsOf(domain.OperationSend)
	require.Len(t, sends, 1)
	assert.Zero(t, sends[0].content.ReplyTo)
}

func TestHandle_EditRepostKeepsReplyThread(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	pair := h.addPair(t, destA, pairDomain.FilterConfig{})
	require.NoError(t, h.mapper.Record(pair.ID, 100, 550))
	require.NoError(t, h.mapper.Record(pair.ID, 101, 555))
	h.transport.editErr = func(int64) error { return messageDomain.ErrMessageGone }

	edited := newMessage(101, "v2")
	parentID := int64(100)
	edited.ReplyTo = &parentID
	h.coordinator.Handle(context.Background(), messageDomain.EditEvent(edited, 101))

	sends := h.transport.callsOf(domain.OperationSend)
	require.Len(t, sends, 1)
	assert.Equal(t, int64(550), sends[0].content.ReplyTo)
}

func TestHandle_EditRepostsWhenDestinationMessageIsGone(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	pair := h.addPair(t, destA, pairDomain.FilterConfig{})
	require.NoError(t, h.mapper.Record(pair.ID, 100, 555))
	h.transport.editErr = func(int64) error { return messageDomain.ErrMessageGone }

	outcomes := h.coordinator.Handle(context.Background(), messageDomain.EditEvent(newMessage(100, "v2"), 100))

	assert.Equal(t, domain.StateMapped, outcomes[0].State)
	sends := h.transport.callsOf(domain.OperationSend)
	require.Len(t, sends, 1)
	assert.Equal(t, int64(100), sends[0].content.MessageID)

	dest, found, err := h.mapper.Lookup(pair.ID, 100)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, outcomes[0].DestinationMessageID, dest)
	assert.NotEqual(t, int64(555), dest)
}

func TestHandle_EditNotModifiedIsSuccess(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	pair := h.addPair(t, destA, pairDomain.FilterConfig{})
	require.NoError(t, h.mapper.Record(pair.ID, 100, 555))
	h.transport.editErr = func(int64) error { return messageDomain.ErrNotModified }

	outcomes := h.coordinator.Handle(context.Background(), messageDomain.EditEvent(newMessage(100, "same"), 100))

	assert.Equal(t, domain.StateMapped, outcomes[0].State)
	assert.Empty(t, h.coordinator.FailureCounts())
}

func TestHandle_DeleteWithoutMappingMakesNoCalls(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	h.addPair(t, destA, pairDomain.FilterConfig{})

	outcomes := h.coordinator.Handle(context.Background(), messageDomain.DeleteEvent(sourceID, 100, time.Now()))

	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.StateNoop, outcomes[0].State)
	assert.Zero(t, h.transport.total())
}

func TestHandle_DeleteRemovesDestinationAndMapping(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	pair := h.addPair(t, destA, pairDomain.FilterConfig{})
	require.NoError(t, h.mapper.Record(pair.ID, 100, 555))

	outcomes := h.coordinator.Handle(context.Background(), messageDomain.DeleteEvent(sourceID, 100, time.Now()))

	assert.Equal(t, domain.StateRemoved, outcomes[0].State)
	deletes := h.transport.callsOf(domain.OperationDelete)
	require.Len(t, deletes, 1)
	assert.Equal(t, int64(555), deletes[0].messageID)

	_, found, err := h.mapper.Lookup(pair.ID, 100)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHandle_DeleteOfAlreadyDeletedDestinationStillRemovesMapping(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	pair := h.addPair(t, destA, pairDomain.FilterConfig{})
	require.NoError(t, h.mapper.Record(pair.ID, 100, 555))
	h.transport.deleteErr = func(int64) error { return messageDomain.ErrMessageGone }

	outcomes := h.coordinator.Handle(context.Background(), messageDomain.DeleteEvent(sourceID, 100, time.Now()))

	assert.Equal(t, domain.StateRemoved, outcomes[0].State)
	_, found, err := h.mapper.Lookup(pair.ID, 100)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHandle_BlockedMessageIsNotSent(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	h.addPair(t, destA, pairDomain.FilterConfig{
		MediaType: &pairDomain.MediaTypeRule{AllowedTypes: []messageDomain.MediaKind{messageDomain.MediaKindVideo}},
	})

	msg := newMessage(100, "")
	msg.MediaKind = messageDomain.MediaKindPhoto
	outcomes := h.coordinator.Handle(context.Background(), messageDomain.NewEvent(msg))

	assert.Equal(t, domain.StateBlocked, outcomes[0].State)
	assert.Zero(t, h.transport.total())
}

func TestHandle_FanOutIsolatesFailures(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)
	first := h.addPair(t, destA, pairDomain.FilterConfig{})
	second := h.addPair(t, destB, pairDomain.FilterConfig{})
	h.transport.sendErr = func(destinationID int64) error {
		if destinationID == destA {
			return messageDomain.ErrPermissionDenied
		}
		return nil
	}

	outcomes := h.coordinator.Handle(context.Background(), messageDomain.NewEvent(newMessage(100, "hi")))

	require.Len(t, outcomes, 2)
	assert.Equal(t, first.ID, outcomes[0].PairID)
	assert.Equal(t, domain.StateFailed, outcomes[0].State)
	assert.ErrorIs(t, outcomes[0].Err, messageDomain.ErrPermissionDenied)
	assert.Equal(t, second.ID, outcomes[1].PairID)
	assert.Equal(t, domain.StateMapped, outcomes[1].State)

	// Permanent errors are not retried.
	assert.Len(t, h.transport.callsOf(domain.OperationSend), 2)
	assert.Equal(t, map[int64]int{first.ID: 1}, h.coordinator.FailureCounts())
}

func TestHandle_AutoDisablesAfterConsecutiveFailures(t *testing.T) {
	const threshold = 3
	h := newHarness(t, fastRetry(), threshold)
	pair := h.addPair(t, destA, pairDomain.FilterConfig{})
	h.transport.sendErr = func(int64) error { return stdErrors.New("gateway timeout") }

	for i := range threshold {
		outcomes := h.coordinator.Handle(context.Background(), messageDomain.NewEvent(newMessage(int64(100+i), "x")))
		require.Len(t, outcomes, 1)
		assert.Equal(t, domain.StateFailed, outcomes[0].State)
		var exhausted *domain.ExhaustedError
		assert.ErrorAs(t, outcomes[0].Err, &exhausted)
	}

	got, err := h.pairs.Get(pair.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, []int64{pair.ID}, h.alerter.disabled)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.AutoDisabled))

	before := h.transport.total()
	outcomes := h.coordinator.Handle(context.Background(), messageDomain.NewEvent(newMessage(200, "x")))
	assert.Empty(t, outcomes)
	assert.Equal(t, before, h.transport.total())

	// Re-enabling resumes delivery.
	h.transport.sendErr = nil
	_, err = h.pairs.SetEnabled(pair.ID, true)
	require.NoError(t, err)
	outcomes = h.coordinator.Handle(context.Background(), messageDomain.NewEvent(newMessage(201, "x")))
	assert.Equal(t, domain.StateMapped, outcomes[0].State)
}

func TestHandle_SuccessResetsFailureCount(t *testing.T) {
	h := newHarness(t, fastRetry(), 3)
	pair := h.addPair(t, destA, pairDomain.FilterConfig{})

	failing := true
	h.transport.sendErr = func(int64) error {
		if failing {
			return messageDomain.ErrUnreachable
		}
		return nil
	}

	h.coordinator.Handle(context.Background(), messageDomain.NewEvent(newMessage(1, "x")))
	h.coordinator.Handle(context.Background(), messageDomain.NewEvent(newMessage(2, "x")))
	assert.Equal(t, 2, h.coordinator.FailureCounts()[pair.ID])

	failing = false
	h.coordinator.Handle(context.Background(), messageDomain.NewEvent(newMessage(3, "x")))
	assert.Empty(t, h.coordinator.FailureCounts())

	failing = true
	h.coordinator.Handle(context.Background(), messageDomain.NewEvent(newMessage(4, "x")))
	got, err := h.pairs.Get(pair.ID)
	require.NoError(t, err)
	assert.True(t, got.Enabled)
}

func TestHandle_DisablingPairAbortsInFlightRetry(t *testing.T) {
	h := newHarness(t, retry.Policy{BaseDelay: time.Hour, MaxDelay: time.Hour, MaxAttempts: 5}, 5)
	pair := h.addPair(t, destA, pairDomain.FilterConfig{})

	attempted := make(chan struct{}, 1)
	h.transport.sendErr = func(int64) error {
		select {
		case attempted <- struct{}{}:
		default:
		}
		return stdErrors.New("flaky")
	}

	done := make(chan []domain.Outcome, 1)
	go func() {
		done <- h.coordinator.Handle(context.Background(), messageDomain.NewEvent(newMessage(100, "x")))
	}()

	<-attempted
	_, err := h.pairs.SetEnabled(pair.ID, false)
	require.NoError(t, err)

	select {
	case outcomes := <-done:
		require.Len(t, outcomes, 1)
		assert.Equal(t, domain.StateAborted, outcomes[0].State)
		assert.ErrorIs(t, outcomes[0].Err, domain.ErrPairDisabled)
		assert.Empty(t, h.coordinator.FailureCounts())
	case <-time.After(5 * time.Second):
		t.Fatal("retry was not aborted")
	}
}

func TestHandle_NoPairsForSource(t *testing.T) {
	h := newHarness(t, fastRetry(), 5)

	assert.Nil(t, h.coordinator.Handle(context.Background(), messageDomain.NewEvent(newMessage(1, "x"))))
	assert.Zero(t, h.transport.total())
}
