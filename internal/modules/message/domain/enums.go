//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// MediaKind is the content category of an inbound message
// ENUM(text,photo,video,document,audio,animation,sticker,other)
type MediaKind string

// EventKind tags an inbound event
// ENUM(new,edit,delete)
type EventKind string
