package service

import (
	stdErrors "errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/reshetovitsme/channel-relay/internal/modules/operator/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/operator/repository"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Service is the operator registry: who may change relay configuration.
type Service struct {
	repo         repository.Repository
	allowedUsers []int64
	now          func() time.Time

	// claimMu serializes bootstrap so only one first caller becomes owner.
	claimMu sync.Mutex
}

// New creates a new operator service. allowedUsers are always authorized.
func New(repo repository.Repository, allowedUsers []int64) *Service {
	return &Service{
		repo:         repo,
		allowedUsers: allowedUsers,
		now:          time.Now,
	}
}

// IsAuthorized checks whether a user may run configuration commands
func (s *Service) IsAuthorized(userID int64) bool {
	if lo.Contains(s.allowedUsers, userID) {
		return true
	}
	_, err := s.repo.GetOperator(userID)
	return err == nil
}

// Claim registers the caller of /start. Allowed users are registered on
// first contact. With no allowlist and no operators yet, the first caller
// becomes the owner; everyone else gets ErrUnauthorized.
func (s *Service) Claim(userID int64, username string) (*domain.Operator, error) {
	s.claimMu.Lock()
	defer s.claimMu.Unlock()

	if op, err := s.repo.GetOperator(userID); err == nil {
		return op, nil
	} else if !stdErrors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	existing, err := s.repo.GetAllOperators()
	if err != nil {
		return nil, err
	}

	switch {
	case lo.Contains(s.allowedUsers, userID):
	case len(s.allowedUsers) == 0 && len(existing) == 0:
		slog.Info("Bootstrapping first operator as owner", "user_id", userID, "username", username)
	default:
		return nil, oops.Code("unauthorized").With("user_id", userID).Wrap(errors.ErrUnauthorized)
	}

	op := &domain.Operator{
		ID:       userID,
		Username: username,
		AddedAt:  s.now(),
		IsOwner:  !lo.SomeBy(existing, func(o *domain.Operator) bool { return o.IsOwner }),
	}
	if err := s.repo.SaveOperator(op); err != nil {
		return nil, err
	}
	return op, nil
}

// Add grants operator rights to another user.
func (s *Service) Add(userID int64, username string) (*domain.Operator, error) {
	if op, err := s.repo.GetOperator(userID); err == nil {
		return op, nil
	}

	op := &domain.Operator{ID: userID, Username: username, AddedAt: s.now()}
	if err := s.repo.SaveOperator(op); err != nil {
		return nil, err
	}
	return op, nil
}

// Remove revokes operator rights. The owner cannot be removed.
func (s *Service) Remove(userID int64) error {
	op, err := s.repo.GetOperator(userID)
	if err != nil {
		return err
	}
	if op.IsOwner {
		return oops.Code("conflict").With("user_id", userID).Wrapf(errors.ErrConflict, "cannot remove the owner")
	}
	return s.repo.DeleteOperator(userID)
}

// GetAllOperators retrieves all operators
func (s *Service) GetAllOperators() ([]*domain.Operator, error) {
	return s.repo.GetAllOperators()
}

// NotifyTargets returns every user that should receive alerts.
func (s *Service) NotifyTargets() []int64 {
	ids := slices.Clone(s.allowedUsers)
	ops, err := s.repo.GetAllOperators()
	if err != nil {
		slog.Error("Failed to list operators", "error", err)
		return lo.Uniq(ids)
	}
	for _, op := range ops {
		ids = append(ids, op.ID)
	}
	return lo.Uniq(ids)
}
