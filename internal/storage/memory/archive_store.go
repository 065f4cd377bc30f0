package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/storage"
)

// BattleArchiveStore is an in-memory implementation of storage.BattleArchiveStore.
type BattleArchiveStore struct {
	mu   sync.RWMutex
	data map[uint64]*domain.BattleArchive // keyed by battle_id
}

// NewBattleArchiveStore creates a new in-memory battle archive store.
func NewBattleArchiveStore() *BattleArchiveStore {
	return &BattleArchiveStore{
		data: make(map[uint64]*domain.BattleArchive),
	}
}

// Insert archives a resolved battle. Returns ErrDuplicateKey if battle_id exists.
func (s *BattleArchiveStore) Insert(_ context.Context, a *domain.BattleArchive) error {
	if a == nil || a.BattleID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.BattleID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *a
	s.data[a.BattleID] = &copy
	return nil
}

// GetByID retrieves one archived battle. Returns ErrNotFound if not exists.
func (s *BattleArchiveStore) GetByID(_ context.Context, battleID uint64) (*domain.BattleArchive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[battleID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *a
	return &copy, nil
}

// GetByPlayer retrieves archives where the player fought on either side, newest first.
// Addresses compare case-insensitively so checksummed and lowercase hex both match.
func (s *BattleArchiveStore) GetByPlayer(_ context.Context, player string) ([]*domain.BattleArchive, error) {
	if player == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BattleArchive
	for _, a := range s.data {
		if strings.EqualFold(a.Creator, player) || strings.EqualFold(a.Opponent, player) {
			copy := *a
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ResolvedAt.Equal(result[j].ResolvedAt) {
			return result[i].ResolvedAt.After(result[j].ResolvedAt)
		}
		return result[i].BattleID > result[j].BattleID
	})

	return result, nil
}

// Count returns how many battles have been archived.
func (s *BattleArchiveStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.data)), nil
}

var _ storage.BattleArchiveStore = (*BattleArchiveStore)(nil)
