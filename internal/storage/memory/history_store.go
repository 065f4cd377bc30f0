package memory

import (
	"context"
	"sort"
	"sync"

	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/storage"
)

// HistoryStore is an in-memory implementation of storage.HistoryStore.
type HistoryStore struct {
	mu   sync.RWMutex
	data []*domain.AnalysisPoint
}

// NewHistoryStore creates a new in-memory analysis history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// InsertBulk appends one cycle's analysis points. Fails the entire batch on
// invalid input so a cycle is never half recorded.
func (s *HistoryStore) InsertBulk(_ context.Context, points []*domain.AnalysisPoint) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p == nil || p.BattleID == 0 {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		copy := *p
		s.data = append(s.data, &copy)
	}
	return nil
}

// GetByBattle retrieves points for a battle, ordered by analyzed_at ASC, up to limit.
// A limit <= 0 returns everything.
func (s *HistoryStore) GetByBattle(_ context.Context, battleID uint64, limit int) ([]*domain.AnalysisPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AnalysisPoint
	for _, p := range s.data {
		if p.BattleID == battleID {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AnalyzedAt.Before(result[j].AnalyzedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetByCycle retrieves all points recorded in one cycle.
func (s *HistoryStore) GetByCycle(_ context.Context, cycle uint64) ([]*domain.AnalysisPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AnalysisPoint
	for _, p := range s.data {
		if p.Cycle == cycle {
			copy := *p
			result = append(result, &copy)
		}
	}

	return result, nil
}

var _ storage.HistoryStore = (*HistoryStore)(nil)
