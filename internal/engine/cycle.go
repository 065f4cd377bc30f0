package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lp-arena-agent/internal/battle"
	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/routing"
)

// runCycle executes one monitor, decide, act pass. Any panic is caught
// here and recorded; a bad cycle never takes the loop down.
func (e *Engine) runCycle(ctx context.Context) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	e.mu.Lock()
	e.cycleSeq++
	seq := e.cycleSeq
	e.mu.Unlock()

	snap := Snapshot{Cycle: seq, StartedAt: time.Now().UTC()}
	outcome := "ok"

	defer func() {
		if r := recover(); r != nil {
			outcome = "recovered"
			snap.Errors = append(snap.Errors, fmt.Sprintf("cycle panic: %v", r))
			e.log.Errorw("cycle panicked", "cycle", seq, "panic", r)
		}
		snap.FinishedAt = time.Now().UTC()

		e.snapMu.Lock()
		e.snapshot = snap
		e.snapMu.Unlock()

		if e.metrics != nil {
			e.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
			e.metrics.CycleDuration.Observe(snap.FinishedAt.Sub(snap.StartedAt).Seconds())
			e.metrics.LastCycleTime.Set(float64(snap.FinishedAt.Unix()))
		}
		e.log.Infow("cycle finished",
			"cycle", seq,
			"analyses", len(snap.Analyses),
			"actions", len(snap.Actions),
			"errors", len(snap.Errors),
		)
	}()

	e.monitor(ctx, &snap)
	e.decide(&snap)
	e.act(ctx, &snap)
	e.record(ctx, &snap)
}

// monitor fetches the expired, active, and pending id sets concurrently,
// then analyzes each discovered battle sequentially. A battle whose
// analysis fails is dropped from this cycle; the rest proceed.
func (e *Engine) monitor(ctx context.Context, snap *Snapshot) {
	type fetch struct {
		status domain.BattleStatus
		ids    []uint64
		err    error
	}
	fetches := []fetch{
		{status: domain.BattleStatusExpired},
		{status: domain.BattleStatusActive},
		{status: domain.BattleStatusPending},
	}

	var wg sync.WaitGroup
	wg.Add(len(fetches))
	for i := range fetches {
		go func(f *fetch) {
			defer wg.Done()
			f.ids, f.err = e.reader.BattleIDsByStatus(ctx, f.status)
		}(&fetches[i])
	}
	wg.Wait()

	for i := range fetches {
		f := &fetches[i]
		if f.err != nil {
			snap.Errors = append(snap.Errors, fmt.Sprintf("list %s battles: %v", f.status, f.err))
			e.log.Warnw("battle id fetch failed", "status", f.status, "err", f.err)
			continue
		}
		switch f.status {
		case domain.BattleStatusExpired:
			snap.ExpiredIDs = f.ids
		case domain.BattleStatusActive:
			snap.ActiveIDs = f.ids
		case domain.BattleStatusPending:
			snap.PendingIDs = f.ids
		}
	}

	if e.metrics != nil {
		e.metrics.BattlesObserved.WithLabelValues("active").Set(float64(len(snap.ActiveIDs)))
		e.metrics.BattlesObserved.WithLabelValues("pending").Set(float64(len(snap.PendingIDs)))
		e.metrics.BattlesObserved.WithLabelValues("expired").Set(float64(len(snap.ExpiredIDs)))
	}

	// Discovery order is expired, then active, then pending; the id sets
	// themselves keep the contract's iteration order. An id showing up in
	// more than one set is analyzed once, under its first appearance.
	seen := make(map[uint64]bool)
	for _, ids := range [][]uint64{snap.ExpiredIDs, snap.ActiveIDs, snap.PendingIDs} {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true

			analysis, err := e.analyzer.Analyze(ctx, id)
			if err != nil {
				snap.Errors = append(snap.Errors, fmt.Sprintf("analyze battle %d: %v", id, err))
				e.log.Warnw("analysis failed", "battle", id, "err", err)
				if e.metrics != nil {
					e.metrics.AnalysisFailures.Inc()
				}
				continue
			}
			snap.Analyses = append(snap.Analyses, *analysis)
		}
	}
}

// decide builds the cycle's prioritized action list from the analyses.
// Priorities are fixed tiers; the stable sort preserves discovery order
// within a tier.
func (e *Engine) decide(snap *Snapshot) {
	pending := make(map[uint64]bool, len(snap.PendingIDs))
	for _, id := range snap.PendingIDs {
		pending[id] = true
	}

	var actions []domain.AgentAction
	for i := range snap.Analyses {
		a := &snap.Analyses[i]
		switch {
		case a.Status == domain.BattleStatusExpired,
			a.Status == domain.BattleStatusActive && a.TimeRemaining <= 0:
			actions = append(actions, domain.AgentAction{
				Kind:     domain.ActionResolve,
				BattleID: a.BattleID,
				Priority: domain.PriorityResolve,
				Reason:   "expired battle: settle and claim the resolver reward",
			})
		case a.Status == domain.BattleStatusActive && a.Type == domain.BattleTypeRange:
			actions = append(actions, domain.AgentAction{
				Kind:     domain.ActionUpdateStatus,
				BattleID: a.BattleID,
				Priority: domain.PriorityUpdateStatus,
				Reason:   "active range battle: refresh accrued in-range time",
			})
		case pending[a.BattleID]:
			actions = append(actions, domain.AgentAction{
				Kind:     domain.ActionAnalyze,
				BattleID: a.BattleID,
				Priority: domain.PriorityAnalyze,
				Reason:   a.Recommendation,
			})
			if e.entryEligible(a) {
				actions = append(actions, domain.AgentAction{
					Kind:     domain.ActionCrossChainEntry,
					BattleID: a.BattleID,
					Priority: domain.PriorityAnalyze,
					Reason:   fmt.Sprintf("open battle scores %d for entry", a.EntryScore),
				})
			}
		}
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority > actions[j].Priority
	})
	snap.Actions = actions
}

// entryEligible reports whether an open battle is worth planning a
// cross-chain entry into.
func (e *Engine) entryEligible(a *battle.Analysis) bool {
	return e.selector != nil && e.planner != nil && e.entry != nil &&
		a.Status == domain.BattleStatusPending && a.EntryScore >= e.entryThreshold
}

// act executes the decided actions strictly in order. Each write is awaited
// to inclusion before the next action starts; a failure is recorded and the
// remaining actions still run.
func (e *Engine) act(ctx context.Context, snap *Snapshot) {
	analyses := make(map[uint64]*battle.Analysis, len(snap.Analyses))
	for i := range snap.Analyses {
		analyses[snap.Analyses[i].BattleID] = &snap.Analyses[i]
	}

	for _, action := range snap.Actions {
		rec := domain.ActionRecord{
			Cycle:      snap.Cycle,
			BattleID:   action.BattleID,
			Kind:       action.Kind,
			Priority:   action.Priority,
			Status:     domain.ActionStatusDone,
			ExecutedAt: time.Now().UTC(),
		}

		switch action.Kind {
		case domain.ActionResolve, domain.ActionUpdateStatus:
			e.executeWrite(ctx, action, &rec, analyses[action.BattleID])

		case domain.ActionAnalyze:
			rec.Detail = action.Reason

		case domain.ActionCrossChainEntry:
			plan, err := e.planEntry(ctx, action.BattleID)
			if err != nil {
				rec.Status = domain.ActionStatusFailed
				rec.Detail = err.Error()
				e.log.Warnw("entry planning failed", "battle", action.BattleID, "err", err)
			} else {
				snap.Plans = append(snap.Plans, *plan)
				rec.Detail = fmt.Sprintf("planned %s entry, %d steps, %.2fM gas",
					plan.Provider, len(plan.Steps), plan.GasMillions)
			}
		}

		if e.metrics != nil {
			e.metrics.ActionsTotal.WithLabelValues(string(action.Kind), string(rec.Status)).Inc()
		}
		snap.Results = append(snap.Results, rec)
	}
}

// executeWrite runs one on-chain action through the writer.
func (e *Engine) executeWrite(ctx context.Context, action domain.AgentAction, rec *domain.ActionRecord, analysis *battle.Analysis) {
	if e.writer == nil {
		rec.Status = domain.ActionStatusSkipped
		rec.Detail = "no signer configured"
		return
	}

	var (
		txHash string
		err    error
	)
	switch action.Kind {
	case domain.ActionResolve:
		txHash, err = e.writer.ResolveBattle(ctx, action.BattleID)
	case domain.ActionUpdateStatus:
		txHash, err = e.writer.UpdateBattleStatus(ctx, action.BattleID)
	}
	rec.TxHash = txHash

	if err != nil {
		rec.Status = domain.ActionStatusFailed
		rec.Detail = err.Error()
		e.log.Warnw("write failed", "kind", action.Kind, "battle", action.BattleID, "err", err)
		return
	}
	e.log.Infow("write landed", "kind", action.Kind, "battle", action.BattleID, "tx", txHash)

	if action.Kind == domain.ActionResolve {
		e.archiveResolved(ctx, action.BattleID, txHash, analysis)
	}
}

// archiveResolved stores the settled battle's summary. Best effort: archive
// failures are logged, never surfaced as action failures.
func (e *Engine) archiveResolved(ctx context.Context, battleID uint64, txHash string, analysis *battle.Analysis) {
	if e.archive == nil {
		return
	}

	b, err := e.reader.Battle(ctx, battleID)
	if err != nil {
		e.log.Warnw("archive fetch failed", "battle", battleID, "err", err)
		return
	}
	core := b.Core()
	if core.Status != domain.BattleStatusResolved {
		return
	}

	arch := &domain.BattleArchive{
		BattleID:   battleID,
		BattleType: b.Type(),
		Creator:    core.Creator.Hex(),
		Opponent:   core.Opponent.Hex(),
		Winner:     core.Winner.Hex(),
		ResolveTx:  txHash,
		ResolvedAt: time.Now().UTC(),
	}
	if analysis != nil {
		if analysis.Performance != nil {
			arch.CreatorScore = analysis.Performance.CreatorScore.String()
			arch.OpponentScore = analysis.Performance.OpponentScore.String()
		} else if analysis.CreatorProjected != nil && analysis.OpponentProjected != nil {
			arch.CreatorScore = analysis.CreatorProjected.String()
			arch.OpponentScore = analysis.OpponentProjected.String()
		}
	}

	if err := e.archive.Insert(ctx, arch); err != nil {
		e.log.Warnw("archive insert failed", "battle", battleID, "err", err)
	}
}

// planEntry runs the advisory route pipeline for one open battle.
func (e *Engine) planEntry(ctx context.Context, battleID uint64) (*domain.ExecutionPlan, error) {
	intent := routing.NewIntent(e.entry.SourceChain, e.entry.Amount, e.entry.Sender)
	intent.BattleID = battleID

	res, err := e.selector.SelectRoutes(ctx, intent)
	if err != nil {
		return nil, fmt.Errorf("select routes: %w", err)
	}
	if !res.Validation.Valid {
		return nil, fmt.Errorf("entry intent invalid: %v", res.Validation.Issues)
	}
	return e.planner.BuildPlan(intent, res.Options[0], nil)
}

// record persists the cycle's outcomes to whichever stores are configured.
// Store failures are logged and noted on the snapshot, nothing more.
func (e *Engine) record(ctx context.Context, snap *Snapshot) {
	if e.actions != nil {
		for i := range snap.Results {
			if err := e.actions.Insert(ctx, &snap.Results[i]); err != nil {
				snap.Errors = append(snap.Errors, fmt.Sprintf("persist action: %v", err))
				e.log.Warnw("action insert failed", "err", err)
				break
			}
		}
	}

	if e.history != nil && len(snap.Analyses) > 0 {
		points := make([]*domain.AnalysisPoint, 0, len(snap.Analyses))
		for i := range snap.Analyses {
			points = append(points, analysisPoint(snap.Cycle, &snap.Analyses[i]))
		}
		if err := e.history.InsertBulk(ctx, points); err != nil {
			snap.Errors = append(snap.Errors, fmt.Sprintf("persist history: %v", err))
			e.log.Warnw("history insert failed", "err", err)
		}
	}
}

// analysisPoint flattens one analysis for the history store.
func analysisPoint(cycle uint64, a *battle.Analysis) *domain.AnalysisPoint {
	p := &domain.AnalysisPoint{
		Cycle:          cycle,
		BattleID:       a.BattleID,
		BattleType:     a.Type,
		Status:         a.Status,
		TimeRemaining:  int64(a.TimeRemaining / time.Second),
		Leader:         a.Leader,
		EntryScore:     int32(a.EntryScore),
		Recommendation: a.Recommendation,
		AnalyzedAt:     a.AnalyzedAt,
	}
	switch {
	case a.Performance != nil:
		p.CreatorScore = a.Performance.CreatorScore.String()
		p.OpponentScore = a.Performance.OpponentScore.String()
	case a.CreatorProjected != nil && a.OpponentProjected != nil:
		p.CreatorScore = a.CreatorProjected.String()
		p.OpponentScore = a.OpponentProjected.String()
	}
	return p
}
