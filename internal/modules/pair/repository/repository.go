package repository

import (
	"github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
)

// Repository defines the interface for channel pair persistence
type Repository interface {
	SavePair(pair *domain.ChannelPair) error
	GetPair(pairID int64) (*domain.ChannelPair, error)
	GetAllPairs() ([]*domain.ChannelPair, error)
	DeletePair(pairID int64) error
}
