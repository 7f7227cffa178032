package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	alertService "github.com/reshetovitsme/channel-relay/internal/modules/alert/service"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	relayService "github.com/reshetovitsme/channel-relay/internal/modules/relay/service"
	"github.com/reshetovitsme/channel-relay/internal/shared/config"
	"github.com/reshetovitsme/channel-relay/internal/shared/metrics"
	sloghttp "github.com/samber/slog-http"
)

const maxEventBody = 1 << 20

// Submitter accepts inbound events for delivery.
type Submitter interface {
	Submit(ctx context.Context, event messageDomain.Event) error
}

// StatusProvider reports the relay summary served by /health.
type StatusProvider interface {
	Status() relayService.Status
}

// Server handles HTTP requests for health, metrics, alerts and event ingest
type Server struct {
	cfg       *config.Config
	alerts    *alertService.Service
	status    StatusProvider
	metrics   *metrics.Metrics
	submitter Submitter
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New creates a new HTTP server
func New(cfg *config.Config, alerts *alertService.Service, status StatusProvider, m *metrics.Metrics, submitter Submitter) *Server {
	return &Server{
		cfg:       cfg,
		alerts:    alerts,
		status:    status,
		metrics:   m,
		submitter: submitter,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    slog.Default(),
		now:       time.Now,
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler builds the routed handler with access logging and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /alerts.rss", s.handleAlertsFeed)
	mux.HandleFunc("POST /api/events", s.handleEvent)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)
	return handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("HTTP server starting", "addr", addr, "ingest", s.cfg.IngestToken != "")

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.server = srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests. A
// server shut down before Start never listens.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

type healthResponse struct {
	State string `json:"status"`
	relayService.Status
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{State: "ok", Status: s.status.Status()})
}

func (s *Server) handleAlertsFeed(w http.ResponseWriter, r *http.Request) {
	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)

	rss, err := s.alerts.GenerateFeed(baseURL).ToRss()
	if err != nil {
		s.logger.Error("Error converting alerts to RSS", "error", err)
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}

// eventRequest is the ingest payload. Deployments that watch source channels
// through a user session post deletions here, since bots never see them.
type eventRequest struct {
	Kind      string    `json:"kind" validate:"required,oneof=new edit delete"`
	SourceID  int64     `json:"source_id" validate:"required"`
	MessageID int64     `json:"message_id" validate:"gt=0"`
	Timestamp time.Time `json:"timestamp"`
	MediaKind string    `json:"media_kind" validate:"omitempty,oneof=text photo video document audio animation sticker other"`
	Text      string    `json:"text"`
	Caption   string    `json:"caption"`
	EditOf    *int64    `json:"edit_of" validate:"omitempty,gt=0"`
	ReplyTo   *int64    `json:"reply_to" validate:"omitempty,gt=0"`
}

func (req eventRequest) event(now time.Time) messageDomain.Event {
	ts := req.Timestamp
	if ts.IsZero() {
		ts = now
	}

	kind, _ := messageDomain.ParseEventKind(req.Kind)
	if kind == messageDomain.EventKindDelete {
		return messageDomain.DeleteEvent(req.SourceID, req.MessageID, ts)
	}

	media := messageDomain.MediaKindText
	if req.MediaKind != "" {
		media, _ = messageDomain.ParseMediaKind(req.MediaKind)
	}
	msg := messageDomain.InboundMessage{
		SourceID:    req.SourceID,
		MessageID:   req.MessageID,
		Timestamp:   ts,
		MediaKind:   media,
		TextContent: req.Text,
		Caption:     req.Caption,
		ReplyTo:     req.ReplyTo,
	}
	if kind == messageDomain.EventKindEdit {
		original := req.MessageID
		if req.EditOf != nil {
			original = *req.EditOf
		}
		return messageDomain.EditEvent(msg, original)
	}
	return messageDomain.NewEvent(msg)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if s.cfg.IngestToken == "" {
		http.NotFound(w, r)
		return
	}
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}

	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid JSON: %v", err)})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	event := req.event(s.now())
	if err := s.submitter.Submit(r.Context(), event); err != nil {
		s.logger.Error("Failed to submit ingested event", "error", err, "kind", event.Kind, "source_id", event.Message.SourceID)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "relay is shutting down"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) authorized(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.IngestToken)) == 1
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Channel Relay</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #333; }
        .info { background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0; }
        code { background: #e8e8e8; padding: 2px 6px; border-radius: 3px; }
    </style>
</head>
<body>
    <h1>Channel Relay Service</h1>
    <div class="info">
        <p>This service relays posts between Telegram channels. Configure it through the bot.</p>
        <p>Alerts feed: <code>/alerts.rss</code></p>
        <p>Metrics: <code>/metrics</code></p>
    </div>
    <p><a href="/health">Health Check</a></p>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
