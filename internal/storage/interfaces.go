package storage

import (
	"context"

	"lp-arena-agent/internal/domain"
)

// ActionStore provides access to action_log storage.
type ActionStore interface {
	// Insert appends one executed action outcome and fills in rec.ID.
	Insert(ctx context.Context, rec *domain.ActionRecord) error

	// GetByCycle retrieves all actions from one cycle, ordered by execution time ASC.
	GetByCycle(ctx context.Context, cycle uint64) ([]*domain.ActionRecord, error)

	// GetByBattle retrieves every action taken for a battle, ordered by execution time ASC.
	GetByBattle(ctx context.Context, battleID uint64) ([]*domain.ActionRecord, error)

	// GetRecent retrieves the latest actions, newest first, up to limit.
	GetRecent(ctx context.Context, limit int) ([]*domain.ActionRecord, error)
}

// BattleArchiveStore provides access to battle_archive storage.
type BattleArchiveStore interface {
	// Insert archives a resolved battle. Returns ErrDuplicateKey if battle_id exists.
	Insert(ctx context.Context, a *domain.BattleArchive) error

	// GetByID retrieves one archived battle. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, battleID uint64) (*domain.BattleArchive, error)

	// GetByPlayer retrieves archives where the player fought on either side, newest first.
	GetByPlayer(ctx context.Context, player string) ([]*domain.BattleArchive, error)

	// Count returns how many battles have been archived.
	Count(ctx context.Context) (int64, error)
}

// HistoryStore provides access to analysis_history storage.
type HistoryStore interface {
	// InsertBulk appends one cycle's analysis points.
	InsertBulk(ctx context.Context, points []*domain.AnalysisPoint) error

	// GetByBattle retrieves points for a battle, ordered by analyzed_at ASC, up to limit.
	GetByBattle(ctx context.Context, battleID uint64, limit int) ([]*domain.AnalysisPoint, error)

	// GetByCycle retrieves all points recorded in one cycle.
	GetByCycle(ctx context.Context, cycle uint64) ([]*domain.AnalysisPoint, error)
}
