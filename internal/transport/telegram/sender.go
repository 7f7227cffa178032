package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
)

// API is the subset of the Bot API the relay calls. *bot.Bot implements it.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	CopyMessage(ctx context.Context, params *bot.CopyMessageParams) (*models.MessageID, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	EditMessageCaption(ctx context.Context, params *bot.EditMessageCaptionParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
}

// Sender delivers relay content to destination chats.
type Sender struct {
	api API
}

// NewSender creates a Sender over the given API
func NewSender(api API) *Sender {
	return &Sender{api: api}
}

var _ messageDomain.Transport = (*Sender)(nil)

// Send posts text directly and copies media from the source message, so the
// destination never shows a "forwarded from" header.
func (s *Sender) Send(ctx context.Context, destinationID int64, content messageDomain.Content) (int64, error) {
	if content.MediaKind == messageDomain.MediaKindText && content.Text != "" {
		msg, err := s.api.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:          destinationID,
			Text:            content.Text,
			ReplyParameters: replyParameters(content),
		})
		if err != nil {
			return 0, classify(err)
		}
		return int64(msg.ID), nil
	}

	res, err := s.api.CopyMessage(ctx, &bot.CopyMessageParams{
		ChatID:          destinationID,
		FromChatID:      content.SourceID,
		MessageID:       int(content.MessageID),
		ReplyParameters: replyParameters(content),
	})
	if err != nil {
		return 0, classify(err)
	}
	return int64(res.ID), nil
}

// replyParameters threads a post under its mapped parent. The post still goes
// out if the parent was deleted at the destination.
func replyParameters(content messageDomain.Content) *models.ReplyParameters {
	if content.ReplyTo == 0 {
		return nil
	}
	return &models.ReplyParameters{
		MessageID:                int(content.ReplyTo),
		AllowSendingWithoutReply: true,
	}
}

// Edit replaces the text, or the caption for media messages.
func (s *Sender) Edit(ctx context.Context, destinationID, destinationMessageID int64, content messageDomain.Content) error {
	var err error
	if content.MediaKind == messageDomain.MediaKindText {
		if content.Text == "" {
			return messageDomain.ErrNotModified
		}
		_, err = s.api.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    destinationID,
			MessageID: int(destinationMessageID),
			Text:      content.Text,
		})
	} else {
		_, err = s.api.EditMessageCaption(ctx, &bot.EditMessageCaptionParams{
			ChatID:    destinationID,
			MessageID: int(destinationMessageID),
			Caption:   content.Caption,
		})
	}
	return classify(err)
}

func (s *Sender) Delete(ctx context.Context, destinationID, destinationMessageID int64) error {
	_, err := s.api.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    destinationID,
		MessageID: int(destinationMessageID),
	})
	return classify(err)
}
