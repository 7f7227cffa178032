package repository

import (
	stdErrors "errors"
	"strings"

	"github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/reshetovitsme/channel-relay/internal/shared/storage"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

// SQLiteStorage implements Repository on the shared GORM database
type SQLiteStorage struct {
	db *gorm.DB
}

// NewSQLiteStorage creates a pair repository and migrates its table
func NewSQLiteStorage(db *gorm.DB) (Repository, error) {
	if err := storage.AutoMigrate(db, &domain.ChannelPair{}); err != nil {
		return nil, err
	}
	return &SQLiteStorage{db: db}, nil
}

// SavePair inserts a new pair (ID == 0) or overwrites an existing one.
func (s *SQLiteStorage) SavePair(pair *domain.ChannelPair) error {
	var err error
	if pair.ID == 0 {
		err = s.db.Create(pair).Error
	} else {
		err = s.db.Save(pair).Error
	}
	if err != nil {
		if isUniqueViolation(err) {
			return oops.
				With("source_id", pair.SourceID, "destination_id", pair.DestinationID).
				Wrapf(errors.ErrConflict, "pair already exists")
		}
		return oops.With("pair_id", pair.ID, "context", "failed to save pair").Wrap(err)
	}
	return nil
}

func (s *SQLiteStorage) GetPair(pairID int64) (*domain.ChannelPair, error) {
	var pair domain.ChannelPair
	if err := s.db.First(&pair, pairID).Error; err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, oops.With("pair_id", pairID).Wrap(errors.ErrNotFound)
		}
		return nil, oops.With("pair_id", pairID, "context", "failed to read pair").Wrap(err)
	}
	return &pair, nil
}

// GetAllPairs returns every pair in insertion order.
func (s *SQLiteStorage) GetAllPairs() ([]*domain.ChannelPair, error) {
	var pairs []*domain.ChannelPair
	if err := s.db.Order("id ASC").Find(&pairs).Error; err != nil {
		return nil, oops.With("context", "failed to list pairs").Wrap(err)
	}
	return pairs, nil
}

func (s *SQLiteStorage) DeletePair(pairID int64) error {
	res := s.db.Delete(&domain.ChannelPair{}, pairID)
	if res.Error != nil {
		return oops.With("pair_id", pairID, "context", "failed to delete pair").Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return oops.With("pair_id", pairID).Wrap(errors.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return stdErrors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
