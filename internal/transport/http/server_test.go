package http

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	alertDomain "github.com/reshetovitsme/channel-relay/internal/modules/alert/domain"
	alertService "github.com/reshetovitsme/channel-relay/internal/modules/alert/service"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	relayService "github.com/reshetovitsme/channel-relay/internal/modules/relay/service"
	"github.com/reshetovitsme/channel-relay/internal/shared/config"
	"github.com/reshetovitsme/channel-relay/internal/shared/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "s3cret"

type recordingSubmitter struct {
	mu     sync.Mutex
	events []messageDomain.Event
	err    error
}

func (s *recordingSubmitter) Submit(_ context.Context, event messageDomain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type staticStatus relayService.Status

func (s staticStatus) Status() relayService.Status { return relayService.Status(s) }

func newTestServer(t *testing.T, ingestToken string) (*httptest.Server, *recordingSubmitter, *alertService.Service) {
	t.Helper()
	alerts := alertService.New(10)
	submitter := &recordingSubmitter{}
	s := New(&config.Config{HTTPPort: "0", IngestToken: ingestToken}, alerts, staticStatus{Pairs: 2, EnabledPairs: 1, QueueDepth: 3}, metrics.New(), submitter)
	s.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, submitter, alerts
}

func postEvent(t *testing.T, srv *httptest.Server, auth, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/events", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 2.0, body["pairs"])
	assert.Equal(t, 1.0, body["enabled_pairs"])
	assert.Equal(t, 3.0, body["queue_depth"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "relay_dispatch_queue_depth")
}

func TestAlertsFeed(t *testing.T) {
	srv, _, alerts := newTestServer(t, "")
	alerts.Raise(context.Background(), alertDomain.Alert{
		Kind:          alertDomain.KindPairDisabled,
		PairID:        7,
		SourceID:      -1001,
		DestinationID: -1002,
		Failures:      5,
		Cause:         "forbidden",
	})

	resp, err := srv.Client().Get(srv.URL + "/alerts.rss")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/rss+xml")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<rss")
	assert.Contains(t, string(raw), "/alerts.rss#1")
}

func TestIngest_DisabledWithoutToken(t *testing.T) {
	srv, submitter, _ := newTestServer(t, "")

	resp := postEvent(t, srv, "anything", `{"kind":"delete","source_id":-1001,"message_id":5}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, submitter.events)
}

func TestIngest_RejectsBadToken(t *testing.T) {
	srv, submitter, _ := newTestServer(t, token)

	assert.Equal(t, http.StatusUnauthorized, postEvent(t, srv, "", `{}`).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, postEvent(t, srv, "wrong", `{}`).StatusCode)
	assert.Empty(t, submitter.events)
}

func TestIngest_ValidatesPayload(t *testing.T) {
	srv, submitter, _ := newTestServer(t, token)

	bodies := []string{
		`not json`,
		`{"kind":"move","source_id":-1001,"message_id":5}`,
		`{"kind":"new","message_id":5}`,
		`{"kind":"new","source_id":-1001,"message_id":0}`,
		`{"kind":"new","source_id":-1001,"message_id":5,"media_kind":"hologram"}`,
		`{"kind":"new","source_id":-1001,"message_id":5,"extra":true}`,
	}
	for _, body := range bodies {
		assert.Equal(t, http.StatusBadRequest, postEvent(t, srv, token, body).StatusCode, body)
	}
	assert.Empty(t, submitter.events)
}

func TestIngest_SubmitsEvents(t *testing.T) {
	srv, submitter, _ := newTestServer(t, token)

	resp := postEvent(t, srv, token, `{"kind":"delete","source_id":-1001,"message_id":5}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = postEvent(t, srv, token, `{"kind":"edit","source_id":-1001,"message_id":6,"media_kind":"photo","caption":"new","timestamp":"2024-01-02T08:00:00Z"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = postEvent(t, srv, token, `{"kind":"new","source_id":-1001,"message_id":7,"text":"hi"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Len(t, submitter.events, 3)

	del := submitter.events[0]
	assert.Equal(t, messageDomain.EventKindDelete, del.Kind)
	assert.True(t, del.Message.Deleted)
	assert.Equal(t, int64(5), del.TargetID())
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), del.Message.Timestamp)

	edit := submitter.events[1]
	assert.Equal(t, messageDomain.EventKindEdit, edit.Kind)
	assert.Equal(t, int64(6), edit.TargetID())
	assert.Equal(t, messageDomain.MediaKindPhoto, edit.Message.MediaKind)
	assert.Equal(t, time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), edit.Message.Timestamp)

	created := submitter.events[2]
	assert.Equal(t, messageDomain.EventKindNew, created.Kind)
	assert.Equal(t, messageDomain.MediaKindText, created.Message.MediaKind)
	assert.Equal(t, "hi", created.Message.TextContent)
}

func TestIngest_SubmitFailure(t *testing.T) {
	srv, submitter, _ := newTestServer(t, token)
	submitter.err = stdErrors.New("dispatcher closed")

	resp := postEvent(t, srv, token, `{"kind":"new","source_id":-1001,"message_id":7,"text":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestShutdownBeforeStart(t *testing.T) {
	s := New(&config.Config{HTTPPort: "0"}, alertService.New(1), staticStatus{}, metrics.New(), &recordingSubmitter{})

	require.NoError(t, s.Shutdown(context.Background()))

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept listening after Shutdown")
	}
}
