package domain

import "time"

// InboundMessage is the transient view of one source channel message
type InboundMessage struct {
	SourceID    int64     `json:"source_id"`
	MessageID   int64     `json:"message_id"`
	Timestamp   time.Time `json:"timestamp"`
	MediaKind   MediaKind `json:"media_kind"`
	TextContent string    `json:"text,omitempty"`
	Caption     string    `json:"caption,omitempty"`
	EditOf      *int64    `json:"edit_of,omitempty"`
	ReplyTo     *int64    `json:"reply_to,omitempty"`
	Deleted     bool      `json:"deleted,omitempty"`
}

// HasText reports whether there is anything for keyword or regex rules to match against.
func (m InboundMessage) HasText() bool {
	return m.TextContent != "" || m.Caption != ""
}

// Event is the tagged union consumed by the coordinator.
type Event struct {
	Kind    EventKind      `json:"kind"`
	Message InboundMessage `json:"message"`
}

// NewEvent builds a NEW event.
func NewEvent(msg InboundMessage) Event {
	return Event{Kind: EventKindNew, Message: msg}
}

// EditEvent builds an EDIT event for the original message id.
func EditEvent(msg InboundMessage, original int64) Event {
	msg.EditOf = &original
	return Event{Kind: EventKindEdit, Message: msg}
}

// DeleteEvent builds a DELETE event.
func DeleteEvent(sourceID, messageID int64, at time.Time) Event {
	return Event{Kind: EventKindDelete, Message: InboundMessage{
		SourceID:  sourceID,
		MessageID: messageID,
		Timestamp: at,
		Deleted:   true,
	}}
}

// TargetID is the source message an event refers to.
func (e Event) TargetID() int64 {
	if e.Kind == EventKindEdit && e.Message.EditOf != nil {
		return *e.Message.EditOf
	}
	return e.Message.MessageID
}

// Content is what the transport needs to reproduce a source message at a destination.
type Content struct {
	SourceID  int64
	MessageID int64
	MediaKind MediaKind
	Text      string
	Caption   string
	// ReplyTo is the destination message to thread under; zero means none.
	ReplyTo int64
}

// ContentOf extracts outbound content from an inbound message.
func ContentOf(m InboundMessage) Content {
	return Content{
		SourceID:  m.SourceID,
		MessageID: m.MessageID,
		MediaKind: m.MediaKind,
		Text:      m.TextContent,
		Caption:   m.Caption,
	}
}

// Mapping records where a forwarded source message landed.
type Mapping struct {
	PairID               int64     `json:"pair_id" gorm:"primaryKey;autoIncrement:false"`
	SourceMessageID      int64     `json:"source_message_id" gorm:"primaryKey;autoIncrement:false"`
	DestinationMessageID int64     `json:"destination_message_id" gorm:"not null"`
	ForwardedAt          time.Time `json:"forwarded_at" gorm:"not null"`
}

// TableName implements the GORM tabler interface.
func (Mapping) TableName() string { return "message_map" }
