package service

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/pair/repository"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Listener is notified after a pair mutation has been persisted.
type Listener func(pair domain.ChannelPair, removed bool)

// Service is the pair registry: it owns the pair lifecycle and answers which
// pairs apply to a source. Reads are served from memory; every mutation is
// written through to the repository before the cache changes.
type Service struct {
	repo repository.Repository

	mu        sync.RWMutex
	pairs     []domain.ChannelPair // ordered by ID
	listeners []Listener
	now       func() time.Time
}

// New creates a new pair registry
func New(repo repository.Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Load fills the cache from the repository.
func (s *Service) Load() error {
	stored, err := s.repo.GetAllPairs()
	if err != nil {
		return oops.With("context", "failed to load pairs").Wrap(err)
	}

	pairs := make([]domain.ChannelPair, 0, len(stored))
	for _, p := range stored {
		if err := p.Filter.Prepare(); err != nil {
			// An empty filter would forward everything, so the pair stays off
			// until an operator replaces the filter and re-enables it.
			slog.Error("Stored pair has an invalid filter, disabling it", "pair_id", p.ID, "error", err)
			p.Enabled = false
		}
		pairs = append(pairs, *p)
	}
	slices.SortFunc(pairs, func(a, b domain.ChannelPair) int { return cmp.Compare(a.ID, b.ID) })

	s.mu.Lock()
	s.pairs = pairs
	s.mu.Unlock()

	slog.Info("Pairs loaded", "count", len(pairs))
	return nil
}

// Watch registers a listener for persisted mutations.
func (s *Service) Watch(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// PairsForSource returns the pairs of a source in insertion order.
func (s *Service) PairsForSource(sourceID int64) []domain.ChannelPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.pairs, func(p domain.ChannelPair, _ int) bool {
		return p.SourceID == sourceID
	})
}

// EnabledPairsForSource is PairsForSource restricted to enabled pairs.
func (s *Service) EnabledPairsForSource(sourceID int64) []domain.ChannelPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.pairs, func(p domain.ChannelPair, _ int) bool {
		return p.SourceID == sourceID && p.Enabled
	})
}

// All returns every pair in insertion order.
func (s *Service) All() []domain.ChannelPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.pairs)
}

// Get returns a pair by ID.
func (s *Service) Get(pairID int64) (domain.ChannelPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(pairID)
	if idx < 0 {
		return domain.ChannelPair{}, oops.With("pair_id", pairID).Wrap(errors.ErrNotFound)
	}
	return s.pairs[idx], nil
}

// Upsert creates a pair (ID == 0) or replaces an existing one. The filter is
// validated and compiled here so evaluation never sees a malformed rule.
func (s *Service) Upsert(pair domain.ChannelPair) (domain.ChannelPair, error) {
	if pair.SourceID == 0 || pair.DestinationID == 0 {
		return domain.ChannelPair{}, oops.Wrapf(errors.ErrInvalidPair, "source and destination are required")
	}
	if pair.SourceID == pair.DestinationID {
		return domain.ChannelPair{}, oops.With("chat_id", pair.SourceID).Wrapf(errors.ErrInvalidPair, "source and destination must differ")
	}
	pair.Filter = pair.Filter.Clone()
	if err := pair.Filter.Prepare(); err != nil {
		return domain.ChannelPair{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if clash, ok := lo.Find(s.pairs, func(p domain.ChannelPair) bool {
		return p.SameRoute(pair) && p.ID != pair.ID
	}); ok {
		return domain.ChannelPair{}, oops.
			With("pair_id", clash.ID, "source_id", pair.SourceID, "destination_id", pair.DestinationID).
			Wrapf(errors.ErrConflict, "pair already exists")
	}

	idx := -1
	if pair.ID != 0 {
		idx = s.indexOf(pair.ID)
		if idx < 0 {
			return domain.ChannelPair{}, oops.With("pair_id", pair.ID).Wrap(errors.ErrNotFound)
		}
		pair.CreatedAt = s.pairs[idx].CreatedAt
	} else {
		pair.CreatedAt = s.now()
	}

	if err := s.repo.SavePair(&pair); err != nil {
		return domain.ChannelPair{}, err
	}

	if idx >= 0 {
		s.pairs[idx] = pair
	} else {
		s.pairs = append(s.pairs, pair)
	}
	s.notify(pair, false)
	return pair, nil
}

// SetEnabled flips a pair's enabled flag.
func (s *Service) SetEnabled(pairID int64, enabled bool) (domain.ChannelPair, error) {
	return s.update(pairID, func(p *domain.ChannelPair) { p.Enabled = enabled })
}

// SetFilter replaces a pair's filter configuration.
func (s *Service) SetFilter(pairID int64, filter domain.FilterConfig) (domain.ChannelPair, error) {
	filter = filter.Clone()
	if err := filter.Prepare(); err != nil {
		return domain.ChannelPair{}, err
	}
	return s.update(pairID, func(p *domain.ChannelPair) { p.Filter = filter })
}

// Remove deletes a pair permanently.
func (s *Service) Remove(pairID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(pairID)
	if idx < 0 {
		return oops.With("pair_id", pairID).Wrap(errors.ErrNotFound)
	}
	if err := s.repo.DeletePair(pairID); err != nil {
		return err
	}

	removed := s.pairs[idx]
	s.pairs = slices.Delete(s.pairs, idx, idx+1)
	s.notify(removed, true)
	return nil
}

func (s *Service) update(pairID int64, mutate func(p *domain.ChannelPair)) (domain.ChannelPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(pairID)
	if idx < 0 {
		return domain.ChannelPair{}, oops.With("pair_id", pairID).Wrap(errors.ErrNotFound)
	}

	pair := s.pairs[idx]
	mutate(&pair)
	if err := s.repo.SavePair(&pair); err != nil {
		return domain.ChannelPair{}, err
	}

	s.pairs[idx] = pair
	s.notify(pair, false)
	return pair, nil
}

// indexOf must be called with mu held.
func (s *Service) indexOf(pairID int64) int {
	idx, found := slices.BinarySearchFunc(s.pairs, pairID, func(p domain.ChannelPair, id int64) int {
		return cmp.Compare(p.ID, id)
	})
	if !found {
		return -1
	}
	return idx
}

// notify must be called with mu held; listeners must not call back into the registry.
func (s *Service) notify(pair domain.ChannelPair, removed bool) {
	for _, fn := range s.listeners {
		fn(pair, removed)
	}
}
