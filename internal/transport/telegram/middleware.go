package telegram

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Authorize lets the update through only for registered operators.
func (h *Handler) Authorize(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		if !h.operators.IsAuthorized(update.Message.From.ID) {
			slog.Warn("Unauthorized command", "user_id", update.Message.From.ID, "text", update.Message.Text)
			h.reply(ctx, b, update, "❌ Unauthorized")
			return
		}

		next(ctx, b, update)
	}
}
