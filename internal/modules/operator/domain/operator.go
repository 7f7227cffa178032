package domain

import "time"

// Operator is a Telegram user allowed to change relay configuration
type Operator struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	AddedAt  time.Time `json:"added_at"`
	IsOwner  bool      `json:"is_owner"`
}
