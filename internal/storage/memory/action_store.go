package memory

import (
	"context"
	"sort"
	"sync"

	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/storage"
)

// ActionStore is an in-memory implementation of storage.ActionStore.
type ActionStore struct {
	mu     sync.RWMutex
	data   []*domain.ActionRecord
	nextID int64
}

// NewActionStore creates a new in-memory action store.
func NewActionStore() *ActionStore {
	return &ActionStore{nextID: 1}
}

// Insert appends one executed action outcome and fills in rec.ID.
func (s *ActionStore) Insert(_ context.Context, rec *domain.ActionRecord) error {
	if rec == nil || rec.BattleID == 0 || rec.Kind == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	s.nextID++

	copy := *rec
	s.data = append(s.data, &copy)
	return nil
}

// GetByCycle retrieves all actions from one cycle, ordered by execution time ASC.
func (s *ActionStore) GetByCycle(_ context.Context, cycle uint64) ([]*domain.ActionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ActionRecord
	for _, rec := range s.data {
		if rec.Cycle == cycle {
			copy := *rec
			result = append(result, &copy)
		}
	}

	sortActionsAsc(result)
	return result, nil
}

// GetByBattle retrieves every action taken for a battle, ordered by execution time ASC.
func (s *ActionStore) GetByBattle(_ context.Context, battleID uint64) ([]*domain.ActionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ActionRecord
	for _, rec := range s.data {
		if rec.BattleID == battleID {
			copy := *rec
			result = append(result, &copy)
		}
	}

	sortActionsAsc(result)
	return result, nil
}

// GetRecent retrieves the latest actions, newest first, up to limit.
// A limit <= 0 returns everything.
func (s *ActionStore) GetRecent(_ context.Context, limit int) ([]*domain.ActionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ActionRecord, 0, len(s.data))
	for _, rec := range s.data {
		copy := *rec
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ExecutedAt.Equal(result[j].ExecutedAt) {
			return result[i].ExecutedAt.After(result[j].ExecutedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// sortActionsAsc orders by execution time, falling back to insert order for
// records written within the same clock tick.
func sortActionsAsc(recs []*domain.ActionRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].ExecutedAt.Equal(recs[j].ExecutedAt) {
			return recs[i].ExecutedAt.Before(recs[j].ExecutedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}

var _ storage.ActionStore = (*ActionStore)(nil)
