package engine

import (
	"time"

	"lp-arena-agent/internal/battle"
	"lp-arena-agent/internal/domain"
)

// Snapshot is the record of the last completed cycle. It is replaced
// wholesale at the end of every cycle, never merged.
type Snapshot struct {
	Cycle      uint64
	StartedAt  time.Time
	FinishedAt time.Time

	// Discovered id sets, in the contract's iteration order.
	ExpiredIDs []uint64
	ActiveIDs  []uint64
	PendingIDs []uint64

	Analyses []battle.Analysis
	Actions  []domain.AgentAction
	Results  []domain.ActionRecord
	Plans    []domain.ExecutionPlan

	Errors []string
}

// Snapshot returns a copy of the last completed cycle's results. Before the
// first cycle finishes it is the zero Snapshot.
func (e *Engine) Snapshot() Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snapshot.copy()
}

func (s Snapshot) copy() Snapshot {
	out := s
	out.ExpiredIDs = append([]uint64(nil), s.ExpiredIDs...)
	out.ActiveIDs = append([]uint64(nil), s.ActiveIDs...)
	out.PendingIDs = append([]uint64(nil), s.PendingIDs...)
	out.Analyses = append([]battle.Analysis(nil), s.Analyses...)
	out.Actions = append([]domain.AgentAction(nil), s.Actions...)
	out.Results = append([]domain.ActionRecord(nil), s.Results...)
	out.Plans = append([]domain.ExecutionPlan(nil), s.Plans...)
	out.Errors = append([]string(nil), s.Errors...)
	return out
}
