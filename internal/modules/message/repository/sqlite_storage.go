package repository

import (
	stdErrors "errors"

	"github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/reshetovitsme/channel-relay/internal/shared/storage"
	"github.com/samber/oops"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLiteStorage implements Repository on the shared GORM database
type SQLiteStorage struct {
	db *gorm.DB
}

// NewSQLiteStorage creates a mapping repository and migrates its table
func NewSQLiteStorage(db *gorm.DB) (Repository, error) {
	if err := storage.AutoMigrate(db, &domain.Mapping{}); err != nil {
		return nil, err
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveMapping inserts a mapping or, when the key exists, moves it to the new
// destination message. forwarded_at keeps its first value.
func (s *SQLiteStorage) SaveMapping(mapping *domain.Mapping) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pair_id"}, {Name: "source_message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"destination_message_id"}),
	}).Create(mapping).Error
	if err != nil {
		return oops.
			With("pair_id", mapping.PairID, "source_message_id", mapping.SourceMessageID, "context", "failed to save mapping").
			Wrap(err)
	}
	return nil
}

func (s *SQLiteStorage) GetMapping(pairID, sourceMessageID int64) (*domain.Mapping, error) {
	var mapping domain.Mapping
	err := s.db.
		Where("pair_id = ? AND source_message_id = ?", pairID, sourceMessageID).
		Take(&mapping).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		return nil, oops.
			With("pair_id", pairID, "source_message_id", sourceMessageID, "context", "failed to read mapping").
			Wrap(err)
	}
	return &mapping, nil
}

func (s *SQLiteStorage) DeleteMapping(pairID, sourceMessageID int64) error {
	err := s.db.
		Where("pair_id = ? AND source_message_id = ?", pairID, sourceMessageID).
		Delete(&domain.Mapping{}).Error
	if err != nil {
		return oops.
			With("pair_id", pairID, "source_message_id", sourceMessageID, "context", "failed to delete mapping").
			Wrap(err)
	}
	return nil
}

// DeletePairMappings drops every mapping of a removed pair.
func (s *SQLiteStorage) DeletePairMappings(pairID int64) (int64, error) {
	res := s.db.Where("pair_id = ?", pairID).Delete(&domain.Mapping{})
	if res.Error != nil {
		return 0, oops.With("pair_id", pairID, "context", "failed to delete pair mappings").Wrap(res.Error)
	}
	return res.RowsAffected, nil
}

func (s *SQLiteStorage) CountMappings() (int64, error) {
	var total int64
	if err := s.db.Model(&domain.Mapping{}).Count(&total).Error; err != nil {
		return 0, oops.With("context", "failed to count mappings").Wrap(err)
	}
	return total, nil
}
