package service

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"github.com/reshetovitsme/channel-relay/internal/modules/alert/domain"
	pairDomain "github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
	relayDomain "github.com/reshetovitsme/channel-relay/internal/modules/relay/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	texts []string
	err   error
}

func (n *captureNotifier) Notify(_ context.Context, text string) error {
	n.texts = append(n.texts, text)
	return n.err
}

var testPair = pairDomain.ChannelPair{ID: 3, SourceID: -100, DestinationID: -200}

func TestPairDisabled_RecordsAndNotifies(t *testing.T) {
	svc := New(10)
	notifier := &captureNotifier{}
	svc.SetNotifier(notifier)

	svc.PairDisabled(context.Background(), testPair, 5, stdErrors.New("forbidden"))

	alerts := svc.Recent(0)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.KindPairDisabled, alerts[0].Kind)
	assert.Equal(t, 5, alerts[0].Failures)
	assert.Equal(t, "forbidden", alerts[0].Cause)

	require.Len(t, notifier.texts, 1)
	assert.Contains(t, notifier.texts[0], "Pair #3")
	assert.Contains(t, notifier.texts[0], "/enable 3")
}

func TestPairDisabled_NotifierErrorIsSwallowed(t *testing.T) {
	svc := New(10)
	svc.SetNotifier(&captureNotifier{err: stdErrors.New("bot blocked")})

	svc.PairDisabled(context.Background(), testPair, 5, nil)
	assert.Len(t, svc.Recent(0), 1)
	assert.Equal(t, "unknown", svc.Recent(0)[0].Cause)
}

func TestDeliveryFailed_DoesNotNotify(t *testing.T) {
	svc := New(10)
	notifier := &captureNotifier{}
	svc.SetNotifier(notifier)

	svc.DeliveryFailed(context.Background(), testPair, relayDomain.OperationEdit, stdErrors.New("timeout"))

	assert.Empty(t, notifier.texts)
	alerts := svc.Recent(0)
	require.Len(t, alerts, 1)
	assert.Equal(t, "edit", alerts[0].Operation)
}

func TestRecent_RingKeepsNewest(t *testing.T) {
	svc := New(3)
	for i := range 5 {
		svc.DeliveryFailed(context.Background(), pairDomain.ChannelPair{ID: int64(i + 1)}, relayDomain.OperationSend, nil)
	}

	alerts := svc.Recent(0)
	require.Len(t, alerts, 3)
	assert.Equal(t, []int64{5, 4, 3}, []int64{alerts[0].PairID, alerts[1].PairID, alerts[2].PairID})

	top := svc.Recent(2)
	require.Len(t, top, 2)
	assert.Equal(t, int64(5), top[0].PairID)
	assert.Equal(t, uint64(5), top[0].ID)
}

func TestGenerateFeed(t *testing.T) {
	svc := New(10)
	fixed := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	svc.PairDisabled(context.Background(), testPair, 5, stdErrors.New("chat not found"))

	feed := svc.GenerateFeed("http://localhost:8080")
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "Pair #3 disabled", feed.Items[0].Title)
	assert.Equal(t, fixed, feed.Updated)

	rss, err := feed.ToRss()
	require.NoError(t, err)
	assert.Contains(t, rss, "chat not found")
	assert.Contains(t, rss, "http://localhost:8080/alerts.rss")
}
