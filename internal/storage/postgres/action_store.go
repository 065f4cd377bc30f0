package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/storage"
)

// ActionStore implements storage.ActionStore using PostgreSQL.
type ActionStore struct {
	pool *Pool
}

// NewActionStore creates a new ActionStore.
func NewActionStore(pool *Pool) *ActionStore {
	return &ActionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ActionStore = (*ActionStore)(nil)

const actionColumns = `id, cycle, battle_id, kind, priority, status, tx_hash, detail, executed_at`

// Insert appends one executed action outcome and fills in rec.ID.
func (s *ActionStore) Insert(ctx context.Context, rec *domain.ActionRecord) error {
	if rec == nil || rec.BattleID == 0 || rec.Kind == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO action_log (
			cycle, battle_id, kind, priority, status, tx_hash, detail, executed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		rec.Cycle, rec.BattleID, string(rec.Kind), rec.Priority,
		string(rec.Status), rec.TxHash, rec.Detail, rec.ExecutedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert action record: %w", err)
	}
	return nil
}

// GetByCycle retrieves all actions from one cycle, ordered by execution time ASC.
func (s *ActionStore) GetByCycle(ctx context.Context, cycle uint64) ([]*domain.ActionRecord, error) {
	query := `
		SELECT ` + actionColumns + `
		FROM action_log
		WHERE cycle = $1
		ORDER BY executed_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, cycle)
	if err != nil {
		return nil, fmt.Errorf("get actions by cycle: %w", err)
	}
	defer rows.Close()

	return scanActionRecords(rows)
}

// GetByBattle retrieves every action taken for a battle, ordered by execution time ASC.
func (s *ActionStore) GetByBattle(ctx context.Context, battleID uint64) ([]*domain.ActionRecord, error) {
	query := `
		SELECT ` + actionColumns + `
		FROM action_log
		WHERE battle_id = $1
		ORDER BY executed_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, battleID)
	if err != nil {
		return nil, fmt.Errorf("get actions by battle: %w", err)
	}
	defer rows.Close()

	return scanActionRecords(rows)
}

// GetRecent retrieves the latest actions, newest first, up to limit.
// A limit <= 0 returns everything.
func (s *ActionStore) GetRecent(ctx context.Context, limit int) ([]*domain.ActionRecord, error) {
	query := `
		SELECT ` + actionColumns + `
		FROM action_log
		ORDER BY executed_at DESC, id DESC
	`

	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.pool.Query(ctx, query+` LIMIT $1`, limit)
	} else {
		rows, err = s.pool.Query(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("get recent actions: %w", err)
	}
	defer rows.Close()

	return scanActionRecords(rows)
}

// scanActionRecords scans multiple rows into a slice of ActionRecord.
func scanActionRecords(rows pgx.Rows) ([]*domain.ActionRecord, error) {
	var recs []*domain.ActionRecord

	for rows.Next() {
		var (
			rec          domain.ActionRecord
			kind, status string
		)

		err := rows.Scan(
			&rec.ID, &rec.Cycle, &rec.BattleID, &kind, &rec.Priority,
			&status, &rec.TxHash, &rec.Detail, &rec.ExecutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan action record row: %w", err)
		}

		rec.Kind = domain.ActionKind(kind)
		rec.Status = domain.ActionStatus(status)
		recs = append(recs, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action record rows: %w", err)
	}

	return recs, nil
}
