package service

import (
	stdErrors "errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/moby/locker"

	"github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/message/repository"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
)

// Service is the message mapper: it owns the source to destination message
// id correspondences used to propagate edits and deletions.
type Service struct {
	repo  repository.Repository
	locks *locker.Locker
	now   func() time.Time
}

// New creates a new message mapper
func New(repo repository.Repository) *Service {
	return &Service{
		repo:  repo,
		locks: locker.New(),
		now:   time.Now,
	}
}

// Record stores where a source message landed for a pair. Recording an
// existing key moves it to the new destination message.
func (s *Service) Record(pairID, sourceMessageID, destinationMessageID int64) error {
	return s.repo.SaveMapping(&domain.Mapping{
		PairID:               pairID,
		SourceMessageID:      sourceMessageID,
		DestinationMessageID: destinationMessageID,
		ForwardedAt:          s.now().UTC(),
	})
}

// Lookup returns the destination message id, if the source message was forwarded.
func (s *Service) Lookup(pairID, sourceMessageID int64) (int64, bool, error) {
	mapping, err := s.repo.GetMapping(pairID, sourceMessageID)
	if err != nil {
		if stdErrors.Is(err, errors.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return mapping.DestinationMessageID, true, nil
}

// Remove forgets one mapping.
func (s *Service) Remove(pairID, sourceMessageID int64) error {
	return s.repo.DeleteMapping(pairID, sourceMessageID)
}

// ForgetPair drops every mapping of a pair.
func (s *Service) ForgetPair(pairID int64) error {
	removed, err := s.repo.DeletePairMappings(pairID)
	if err != nil {
		return err
	}
	slog.Info("Pair mappings removed", "pair_id", pairID, "count", removed)
	return nil
}

// Count returns the number of stored mappings.
func (s *Service) Count() (int64, error) {
	return s.repo.CountMappings()
}

// Serialize runs fn while holding the single-writer lock of one mapping key.
// Different keys never block each other.
func (s *Service) Serialize(pairID, sourceMessageID int64, fn func() error) error {
	name := lockName(pairID, sourceMessageID)
	s.locks.Lock(name)
	defer func() { _ = s.locks.Unlock(name) }()
	return fn()
}

func lockName(pairID, sourceMessageID int64) string {
	return strconv.FormatInt(pairID, 10) + ":" + strconv.FormatInt(sourceMessageID, 10)
}
