package telegram

import (
	"time"

	"github.com/go-telegram/bot/models"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
)

// InboundFrom converts a channel post into the relay's message view.
func InboundFrom(msg *models.Message) messageDomain.InboundMessage {
	ts := msg.Date
	if msg.EditDate != 0 {
		ts = msg.EditDate
	}

	in := messageDomain.InboundMessage{
		SourceID:    msg.Chat.ID,
		MessageID:   int64(msg.ID),
		Timestamp:   time.Unix(int64(ts), 0).UTC(),
		MediaKind:   mediaKindOf(msg),
		TextContent: msg.Text,
		Caption:     msg.Caption,
	}
	// Replies to posts of other chats cannot be threaded at the destination.
	if r := msg.ReplyToMessage; r != nil && (r.Chat.ID == 0 || r.Chat.ID == msg.Chat.ID) {
		replyTo := int64(r.ID)
		in.ReplyTo = &replyTo
	}
	return in
}

func mediaKindOf(msg *models.Message) messageDomain.MediaKind {
	switch {
	case len(msg.Photo) > 0:
		return messageDomain.MediaKindPhoto
	case msg.Video != nil:
		return messageDomain.MediaKindVideo
	// Animations also carry a Document.
	case msg.Animation != nil:
		return messageDomain.MediaKindAnimation
	case msg.Document != nil:
		return messageDomain.MediaKindDocument
	case msg.Audio != nil:
		return messageDomain.MediaKindAudio
	case msg.Sticker != nil:
		return messageDomain.MediaKindSticker
	case msg.Text != "":
		return messageDomain.MediaKindText
	default:
		return messageDomain.MediaKindOther
	}
}

// EventFrom maps a bot update to a relay event. ok is false for updates the
// relay does not consume.
func EventFrom(update *models.Update) (messageDomain.Event, bool) {
	switch {
	case update.ChannelPost != nil:
		return messageDomain.NewEvent(InboundFrom(update.ChannelPost)), true
	case update.EditedChannelPost != nil:
		msg := InboundFrom(update.EditedChannelPost)
		return messageDomain.EditEvent(msg, msg.MessageID), true
	default:
		return messageDomain.Event{}, false
	}
}

func isChannelUpdate(update *models.Update) bool {
	return update.ChannelPost != nil || update.EditedChannelPost != nil
}
