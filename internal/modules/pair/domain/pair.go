package domain

import "time"

// ChannelPair is one source -> destination forwarding relationship
type ChannelPair struct {
	ID            int64        `json:"id" gorm:"primaryKey;autoIncrement"`
	SourceID      int64        `json:"source_id" gorm:"not null;uniqueIndex:ux_pairs_source_dest,priority:1"`
	DestinationID int64        `json:"destination_id" gorm:"not null;uniqueIndex:ux_pairs_source_dest,priority:2"`
	Enabled       bool         `json:"enabled" gorm:"not null"`
	Filter        FilterConfig `json:"filter" gorm:"column:filter_config_json;type:text;serializer:json"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null"`
}

// TableName implements the GORM tabler interface.
func (ChannelPair) TableName() string { return "pairs" }

// SameRoute reports whether both pairs connect the same source and destination.
func (p ChannelPair) SameRoute(other ChannelPair) bool {
	return p.SourceID == other.SourceID && p.DestinationID == other.DestinationID
}
