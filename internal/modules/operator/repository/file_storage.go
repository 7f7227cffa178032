package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/reshetovitsme/channel-relay/internal/modules/operator/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// FileStorage implements Repository with one JSON file per operator
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStorage creates a new file-based operator repository
func NewFileStorage(basePath string) (Repository, error) {
	operatorPath := filepath.Join(basePath, "operators")
	if err := os.MkdirAll(operatorPath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create operators directory").Wrap(err)
	}

	return &FileStorage{basePath: operatorPath}, nil
}

// SaveOperator writes through a temp file so a crash never leaves a torn record.
func (s *FileStorage) SaveOperator(operator *domain.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(operator, "", "  ")
	if err != nil {
		return oops.With("operator_id", operator.ID, "context", "failed to marshal operator").Wrap(err)
	}

	path := s.path(operator.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return oops.With("operator_id", operator.ID, "context", "failed to write operator").Wrap(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return oops.With("operator_id", operator.ID, "context", "failed to replace operator").Wrap(err)
	}
	return nil
}

func (s *FileStorage) GetOperator(operatorID int64) (*domain.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(operatorID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oops.With("operator_id", operatorID).Wrap(errors.ErrNotFound)
		}
		return nil, oops.With("operator_id", operatorID, "context", "failed to read operator").Wrap(err)
	}

	var operator domain.Operator
	if err := json.Unmarshal(data, &operator); err != nil {
		return nil, oops.With("operator_id", operatorID, "context", "failed to unmarshal operator").Wrap(err)
	}

	return &operator, nil
}

// GetAllOperators returns operators ordered by AddedAt; unreadable files are skipped.
func (s *FileStorage) GetAllOperators() ([]*domain.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, oops.With("directory", s.basePath, "context", "failed to read operators directory").Wrap(err)
	}

	operators := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (*domain.Operator, bool) {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			return nil, false
		}

		data, err := os.ReadFile(filepath.Join(s.basePath, entry.Name()))
		if err != nil {
			return nil, false
		}

		var operator domain.Operator
		if err := json.Unmarshal(data, &operator); err != nil {
			return nil, false
		}

		return &operator, true
	})

	sort.SliceStable(operators, func(i, j int) bool {
		return operators[i].AddedAt.Before(operators[j].AddedAt)
	})
	return operators, nil
}

func (s *FileStorage) DeleteOperator(operatorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(operatorID)); err != nil {
		if os.IsNotExist(err) {
			return oops.With("operator_id", operatorID).Wrap(errors.ErrNotFound)
		}
		return oops.With("operator_id", operatorID, "context", "failed to delete operator").Wrap(err)
	}
	return nil
}

func (s *FileStorage) path(operatorID int64) string {
	return filepath.Join(s.basePath, fmt.Sprintf("%d.json", operatorID))
}
