package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/feeds"
	"github.com/reshetovitsme/channel-relay/internal/modules/alert/domain"
	pairDomain "github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
	relayDomain "github.com/reshetovitsme/channel-relay/internal/modules/relay/domain"
)

// Notifier pushes an alert to operators.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Service keeps a bounded history of alerts, publishes it as RSS and pushes
// pair-disabled alerts to the notifier.
type Service struct {
	capacity int
	now      func() time.Time

	mu       sync.RWMutex
	ring     []domain.Alert
	next     int
	nextID   uint64
	notifier Notifier
}

// New creates a new alert service keeping the last capacity alerts
func New(capacity int) *Service {
	if capacity < 1 {
		capacity = 1
	}
	return &Service{
		capacity: capacity,
		now:      time.Now,
		ring:     make([]domain.Alert, 0, capacity),
	}
}

// SetNotifier sets where pair-disabled alerts are pushed
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// PairDisabled records an auto-disable and notifies operators.
func (s *Service) PairDisabled(ctx context.Context, pair pairDomain.ChannelPair, failures int, cause error) {
	s.Raise(ctx, domain.Alert{
		Kind:          domain.KindPairDisabled,
		PairID:        pair.ID,
		SourceID:      pair.SourceID,
		DestinationID: pair.DestinationID,
		Failures:      failures,
		Cause:         errString(cause),
	})
}

// DeliveryFailed records a failed delivery.
func (s *Service) DeliveryFailed(ctx context.Context, pair pairDomain.ChannelPair, op relayDomain.Operation, cause error) {
	s.Raise(ctx, domain.Alert{
		Kind:          domain.KindDeliveryFailed,
		PairID:        pair.ID,
		SourceID:      pair.SourceID,
		DestinationID: pair.DestinationID,
		Operation:     op.String(),
		Cause:         errString(cause),
	})
}

// Raise stores an alert. Only pair-disabled alerts are pushed to operators;
// delivery failures are too frequent for chat.
func (s *Service) Raise(ctx context.Context, a domain.Alert) domain.Alert {
	a = s.add(a)
	slog.Warn("Alert raised", "kind", a.Kind, "pair_id", a.PairID, "cause", a.Cause)

	if a.Kind != domain.KindPairDisabled {
		return a
	}

	s.mu.RLock()
	notifier := s.notifier
	s.mu.RUnlock()
	if notifier == nil {
		return a
	}

	if err := notifier.Notify(ctx, FormatAlert(a)); err != nil {
		slog.Error("Failed to notify operators", "pair_id", a.PairID, "error", err)
	}
	return a
}

// Recent returns up to limit alerts, newest first. limit <= 0 means all.
func (s *Service) Recent(limit int) []domain.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.ring)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]domain.Alert, 0, limit)
	for i := 0; i < limit; i++ {
		// next points one past the newest entry.
		idx := (s.next - 1 - i + n) % n
		out = append(out, s.ring[idx])
	}
	return out
}

// Count returns how many alerts are retained.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ring)
}

// GenerateFeed renders the alert history as an RSS feed
func (s *Service) GenerateFeed(baseURL string) *feeds.Feed {
	alerts := s.Recent(0)

	feed := &feeds.Feed{
		Title:       "Channel relay alerts",
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/alerts.rss", baseURL)},
		Description: "Delivery failures and automatically disabled channel pairs",
		Created:     s.now(),
	}
	if len(alerts) > 0 {
		feed.Updated = alerts[0].At
	}

	for _, a := range alerts {
		feed.Items = append(feed.Items, s.alertToFeedItem(a, baseURL))
	}
	return feed
}

func (s *Service) alertToFeedItem(a domain.Alert, baseURL string) *feeds.Item {
	description := FormatAlert(a)
	return &feeds.Item{
		Title:       truncate(title(a), 100),
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/alerts.rss#%d", baseURL, a.ID)},
		Description: description,
		Content:     fmt.Sprintf("<p>%s</p>", html.EscapeString(description)),
		Created:     a.At,
		Id:          fmt.Sprintf("alert-%d", a.ID),
	}
}

func (s *Service) add(a domain.Alert) domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	a.ID = s.nextID
	a.At = s.now()

	if len(s.ring) < s.capacity {
		s.ring = append(s.ring, a)
	} else {
		s.ring[s.next] = a
	}
	s.next = (s.next + 1) % s.capacity
	return a
}

// FormatAlert renders an alert as a plain text notice.
func FormatAlert(a domain.Alert) string {
	switch a.Kind {
	case domain.KindPairDisabled:
		return fmt.Sprintf("Pair #%d (%d -> %d) was disabled after %d consecutive delivery failures.\nLast error: %s\nUse /enable %d once the destination is fixed.",
			a.PairID, a.SourceID, a.DestinationID, a.Failures, a.Cause, a.PairID)
	default:
		return fmt.Sprintf("Pair #%d (%d -> %d): %s failed: %s",
			a.PairID, a.SourceID, a.DestinationID, a.Operation, a.Cause)
	}
}

func title(a domain.Alert) string {
	if a.Kind == domain.KindPairDisabled {
		return fmt.Sprintf("Pair #%d disabled", a.PairID)
	}
	return fmt.Sprintf("Pair #%d %s failed", a.PairID, a.Operation)
}

func errString(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
