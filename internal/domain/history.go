package domain

import "time"

// AnalysisPoint is one battle analysis flattened for the history store.
// Corresponds to the analysis_history table in ClickHouse.
type AnalysisPoint struct {
	Cycle          uint64
	BattleID       uint64
	BattleType     BattleType
	Status         BattleStatus
	TimeRemaining  int64  // seconds
	CreatorScore   string // 1e18 fixed-point, decimal string; empty if unknown
	OpponentScore  string
	Leader         string
	EntryScore     int32
	Recommendation string
	AnalyzedAt     time.Time
}
