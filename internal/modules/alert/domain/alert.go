//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

import "time"

// Kind classifies an alert
// ENUM(pair_disabled,delivery_failed)
type Kind string

// Alert is an operator-visible notice about a pair
type Alert struct {
	ID            uint64    `json:"id"`
	Kind          Kind      `json:"kind"`
	PairID        int64     `json:"pair_id"`
	SourceID      int64     `json:"source_id"`
	DestinationID int64     `json:"destination_id"`
	Operation     string    `json:"operation,omitempty"`
	Failures      int       `json:"failures,omitempty"`
	Cause         string    `json:"cause"`
	At            time.Time `json:"at"`
}
