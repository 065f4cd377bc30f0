package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/storage"
)

// BattleArchiveStore implements storage.BattleArchiveStore using PostgreSQL.
type BattleArchiveStore struct {
	pool *Pool
}

// NewBattleArchiveStore creates a new BattleArchiveStore.
func NewBattleArchiveStore(pool *Pool) *BattleArchiveStore {
	return &BattleArchiveStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BattleArchiveStore = (*BattleArchiveStore)(nil)

const archiveColumns = `battle_id, battle_type, creator, opponent, winner, creator_score, opponent_score, resolve_tx, resolved_at`

// Insert archives a resolved battle. Returns ErrDuplicateKey if battle_id exists.
func (s *BattleArchiveStore) Insert(ctx context.Context, a *domain.BattleArchive) error {
	if a == nil || a.BattleID == 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO battle_archive (
			battle_id, battle_type, creator, opponent, winner,
			creator_score, opponent_score, resolve_tx, resolved_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9
		)
	`

	_, err := s.pool.Exec(ctx, query,
		a.BattleID, int16(a.BattleType), a.Creator, a.Opponent, a.Winner,
		a.CreatorScore, a.OpponentScore, a.ResolveTx, a.ResolvedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert battle archive: %w", err)
	}
	return nil
}

// GetByID retrieves one archived battle. Returns ErrNotFound if not exists.
func (s *BattleArchiveStore) GetByID(ctx context.Context, battleID uint64) (*domain.BattleArchive, error) {
	query := `
		SELECT ` + archiveColumns + `
		FROM battle_archive
		WHERE battle_id = $1
	`

	row := s.pool.QueryRow(ctx, query, battleID)
	a, err := scanBattleArchive(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get battle archive by id: %w", err)
	}
	return a, nil
}

// GetByPlayer retrieves archives where the player fought on either side, newest first.
// Address matching is case-insensitive.
func (s *BattleArchiveStore) GetByPlayer(ctx context.Context, player string) ([]*domain.BattleArchive, error) {
	if player == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT ` + archiveColumns + `
		FROM battle_archive
		WHERE lower(creator) = lower($1) OR lower(opponent) = lower($1)
		ORDER BY resolved_at DESC, battle_id DESC
	`

	rows, err := s.pool.Query(ctx, query, player)
	if err != nil {
		return nil, fmt.Errorf("get battle archives by player: %w", err)
	}
	defer rows.Close()

	return scanBattleArchives(rows)
}

// Count returns how many battles have been archived.
func (s *BattleArchiveStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM battle_archive`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count battle archives: %w", err)
	}
	return count, nil
}

// scanBattleArchive scans a single row into a BattleArchive.
func scanBattleArchive(row pgx.Row) (*domain.BattleArchive, error) {
	var (
		a          domain.BattleArchive
		battleType int16
	)

	err := row.Scan(
		&a.BattleID, &battleType, &a.Creator, &a.Opponent, &a.Winner,
		&a.CreatorScore, &a.OpponentScore, &a.ResolveTx, &a.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}

	a.BattleType = domain.BattleType(battleType)
	return &a, nil
}

// scanBattleArchives scans multiple rows into a slice of BattleArchive.
func scanBattleArchives(rows pgx.Rows) ([]*domain.BattleArchive, error) {
	var archives []*domain.BattleArchive

	for rows.Next() {
		var (
			a          domain.BattleArchive
			battleType int16
		)

		err := rows.Scan(
			&a.BattleID, &battleType, &a.Creator, &a.Opponent, &a.Winner,
			&a.CreatorScore, &a.OpponentScore, &a.ResolveTx, &a.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan battle archive row: %w", err)
		}

		a.BattleType = domain.BattleType(battleType)
		archives = append(archives, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate battle archive rows: %w", err)
	}

	return archives, nil
}
