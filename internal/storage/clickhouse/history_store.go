package clickhouse

import (
	"context"
	"fmt"
	"time"

	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/storage"
)

// HistoryStore implements storage.HistoryStore using ClickHouse.
// analysis_history is append-only; MergeTree does not enforce uniqueness and
// the engine never writes the same (cycle, battle_id) pair twice.
type HistoryStore struct {
	conn *Conn
}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(conn *Conn) *HistoryStore {
	return &HistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.HistoryStore = (*HistoryStore)(nil)

// InsertBulk appends one cycle's analysis points.
func (s *HistoryStore) InsertBulk(ctx context.Context, points []*domain.AnalysisPoint) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p == nil || p.BattleID == 0 {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO analysis_history (
			cycle, battle_id, battle_type, status, time_remaining,
			creator_score, opponent_score, leader, entry_score,
			recommendation, analyzed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.Cycle, p.BattleID, int16(p.BattleType), int16(p.Status), p.TimeRemaining,
			p.CreatorScore, p.OpponentScore, p.Leader, p.EntryScore,
			p.Recommendation, p.AnalyzedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByBattle retrieves points for a battle, ordered by analyzed_at ASC, up to limit.
// A limit <= 0 returns everything.
func (s *HistoryStore) GetByBattle(ctx context.Context, battleID uint64, limit int) ([]*domain.AnalysisPoint, error) {
	query := `
		SELECT cycle, battle_id, battle_type, status, time_remaining,
		       creator_score, opponent_score, leader, entry_score,
		       recommendation, analyzed_at
		FROM analysis_history
		WHERE battle_id = ?
		ORDER BY analyzed_at ASC, cycle ASC
	`

	args := []interface{}{battleID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, uint64(limit))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history by battle: %w", err)
	}
	defer rows.Close()

	return scanAnalysisPoints(rows)
}

// GetByCycle retrieves all points recorded in one cycle.
func (s *HistoryStore) GetByCycle(ctx context.Context, cycle uint64) ([]*domain.AnalysisPoint, error) {
	query := `
		SELECT cycle, battle_id, battle_type, status, time_remaining,
		       creator_score, opponent_score, leader, entry_score,
		       recommendation, analyzed_at
		FROM analysis_history
		WHERE cycle = ?
		ORDER BY battle_id ASC
	`

	rows, err := s.conn.Query(ctx, query, cycle)
	if err != nil {
		return nil, fmt.Errorf("query history by cycle: %w", err)
	}
	defer rows.Close()

	return scanAnalysisPoints(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanAnalysisPoints scans multiple rows into a slice.
func scanAnalysisPoints(rows chRows) ([]*domain.AnalysisPoint, error) {
	var points []*domain.AnalysisPoint

	for rows.Next() {
		var (
			p                  domain.AnalysisPoint
			battleType, status int16
			analyzedAt         time.Time
		)

		err := rows.Scan(
			&p.Cycle, &p.BattleID, &battleType, &status, &p.TimeRemaining,
			&p.CreatorScore, &p.OpponentScore, &p.Leader, &p.EntryScore,
			&p.Recommendation, &analyzedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan analysis point row: %w", err)
		}

		p.BattleType = domain.BattleType(battleType)
		p.Status = domain.BattleStatus(status)
		p.AnalyzedAt = analyzedAt
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis point rows: %w", err)
	}

	return points, nil
}
