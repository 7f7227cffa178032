package telegram

import (
	"context"
	stdErrors "errors"
	"log/slog"

	"github.com/go-telegram/bot"
)

// Recipients lists the chats that receive operator notices.
type Recipients interface {
	NotifyTargets() []int64
}

// Notifier sends alert text to every operator over the bot.
type Notifier struct {
	api        API
	recipients Recipients
}

func NewNotifier(api API, recipients Recipients) *Notifier {
	return &Notifier{api: api, recipients: recipients}
}

// Notify tries every recipient and returns the joined failures.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, chatID := range n.recipients.NotifyTargets() {
		if _, err := n.api.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
			slog.Warn("Failed to notify operator", "user_id", chatID, "error", err)
			errs = append(errs, err)
		}
	}
	return stdErrors.Join(errs...)
}
