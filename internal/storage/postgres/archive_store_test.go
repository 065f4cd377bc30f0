package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/storage"
)

func createTestArchive(battleID uint64, resolvedAt time.Time) *domain.BattleArchive {
	return &domain.BattleArchive{
		BattleID:      battleID,
		BattleType:    domain.BattleTypeRange,
		Creator:       "0x1111111111111111111111111111111111111111",
		Opponent:      "0x2222222222222222222222222222222222222222",
		Winner:        "0x1111111111111111111111111111111111111111",
		CreatorScore:  "7000000000000000000000",
		OpponentScore: "3000000000000000000000",
		ResolveTx:     "0xfeedbeef",
		ResolvedAt:    resolvedAt,
	}
}

func TestBattleArchiveStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBattleArchiveStore(pool)

	resolvedAt := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	a := createTestArchive(42, resolvedAt)

	err := store.Insert(ctx, a)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, a.BattleID, got.BattleID)
	assert.Equal(t, a.BattleType, got.BattleType)
	assert.Equal(t, a.Creator, got.Creator)
	assert.Equal(t, a.Opponent, got.Opponent)
	assert.Equal(t, a.Winner, got.Winner)
	assert.Equal(t, a.CreatorScore, got.CreatorScore)
	assert.Equal(t, a.OpponentScore, got.OpponentScore)
	assert.Equal(t, a.ResolveTx, got.ResolveTx)
	assert.True(t, got.ResolvedAt.Equal(resolvedAt), "resolved_at should round-trip: got %v", got.ResolvedAt)
}

func TestBattleArchiveStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBattleArchiveStore(pool)

	require.NoError(t, store.Insert(ctx, createTestArchive(42, time.Now().UTC())))

	err := store.Insert(ctx, createTestArchive(42, time.Now().UTC()))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBattleArchiveStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBattleArchiveStore(pool)

	_, err := store.GetByID(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBattleArchiveStore_GetByPlayer(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBattleArchiveStore(pool)

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	first := createTestArchive(1, base)
	require.NoError(t, store.Insert(ctx, first))

	second := createTestArchive(2, base.Add(time.Hour))
	second.Creator = "0x3333333333333333333333333333333333333333"
	second.Opponent = "0x1111111111111111111111111111111111111111"
	require.NoError(t, store.Insert(ctx, second))

	third := createTestArchive(3, base.Add(2*time.Hour))
	third.Creator = "0x4444444444444444444444444444444444444444"
	third.Opponent = "0x5555555555555555555555555555555555555555"
	require.NoError(t, store.Insert(ctx, third))

	// Matches as creator in battle 1 and as opponent in battle 2, newest first.
	// Lowercase query address must match the stored mixed-case one.
	got, err := store.GetByPlayer(ctx, "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].BattleID)
	assert.Equal(t, uint64(1), got[1].BattleID)
}

func TestBattleArchiveStore_GetByPlayerCaseInsensitive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBattleArchiveStore(pool)

	a := createTestArchive(7, time.Now().UTC())
	a.Creator = "0xAbCd111111111111111111111111111111111111"
	require.NoError(t, store.Insert(ctx, a))

	got, err := store.GetByPlayer(ctx, "0xabcd111111111111111111111111111111111111")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBattleArchiveStore_Count(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBattleArchiveStore(pool)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, store.Insert(ctx, createTestArchive(i, time.Now().UTC())))
	}

	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
