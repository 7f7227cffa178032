package repository

import (
	"github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
)

// Repository defines the interface for message mapping persistence.
// Every operation is a point lookup on (pair_id, source_message_id).
type Repository interface {
	SaveMapping(mapping *domain.Mapping) error
	GetMapping(pairID, sourceMessageID int64) (*domain.Mapping, error)
	DeleteMapping(pairID, sourceMessageID int64) error
	DeletePairMappings(pairID int64) (int64, error)
	CountMappings() (int64, error)
}
