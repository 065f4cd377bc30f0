// Package battle turns raw arena records into analyses and entry scores.
package battle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/position"
	"lp-arena-agent/internal/registry"
	"lp-arena-agent/internal/scoring"
)

// PoolReader reads decoded pool state for a pool id; *poolstate.Reader
// satisfies it.
type PoolReader interface {
	State(ctx context.Context, poolID common.Hash) (*domain.PoolState, error)
}

// Analysis is one battle's assessed state.
type Analysis struct {
	BattleID      uint64
	Type          domain.BattleType
	Status        domain.BattleStatus
	Winner        string        // hex address, set once resolved
	TimeRemaining time.Duration

	// Performance is the arena's live score tuple; nil for battles that have
	// not started.
	Performance *domain.Performance

	// Projected scores computed locally from the record's accrued counters,
	// normalized for the battle's DEX. They forecast what resolution will
	// settle on.
	CreatorProjected  *big.Int
	OpponentProjected *big.Int

	// Pool is the live pool snapshot; only set for range battles when the
	// analyzer has a pool reader. The placements measure each side's staked
	// range against it.
	Pool              *domain.PoolState
	CreatorPlacement  *position.Status
	OpponentPlacement *position.Status

	Leader         string // "creator" | "opponent" | ""
	Recommendation string
	EntryScore     int // 0 unless the battle is open for entry
	AnalyzedAt     time.Time
}

// Analyzer assesses battles through the arena's read interface.
type Analyzer struct {
	reader registry.BattleReader
	pools  PoolReader
	now    func() time.Time
}

// NewAnalyzer builds an analyzer over the arena reader.
func NewAnalyzer(reader registry.BattleReader) *Analyzer {
	return &Analyzer{
		reader: reader,
		now:    time.Now,
	}
}

// WithPools adds live pool state to range battle analyses. When set, a pool
// read failure makes the battle unavailable for that round, same as any
// other read failure.
func (a *Analyzer) WithPools(pools PoolReader) *Analyzer {
	a.pools = pools
	return a
}

// Analyze fetches one battle and assesses it. Any fetch failure returns an
// error; callers treat the battle as unavailable this round and move on.
func (a *Analyzer) Analyze(ctx context.Context, id uint64) (*Analysis, error) {
	b, err := a.reader.Battle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("battle %d: %w", id, err)
	}

	core := b.Core()
	now := a.now()

	analysis := &Analysis{
		BattleID:   id,
		Type:       b.Type(),
		Status:     core.Status,
		AnalyzedAt: now,
	}

	// Resolved battles need nothing beyond the winner.
	if core.Status == domain.BattleStatusResolved {
		analysis.Winner = core.Winner.Hex()
		analysis.Recommendation = "battle resolved"
		return analysis, nil
	}

	remaining, err := a.reader.TimeRemaining(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("battle %d time remaining: %w", id, err)
	}
	analysis.TimeRemaining = remaining

	// The live tuple only exists once the clock has started.
	if core.Status == domain.BattleStatusActive || core.Status == domain.BattleStatusExpired {
		perf, err := a.reader.CurrentPerformance(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("battle %d performance: %w", id, err)
		}
		analysis.Performance = perf
	}

	if err := a.placePositions(ctx, b, analysis); err != nil {
		return nil, err
	}

	analysis.CreatorProjected, analysis.OpponentProjected = projectScores(b, now)
	analysis.Leader = leader(analysis)
	analysis.Recommendation = recommend(core, remaining, analysis.Performance)
	analysis.EntryScore = ScoreForEntry(b, now)

	return analysis, nil
}

// placePositions reads the battle's pool straight from the pool manager's
// storage and measures each staked range against the live tick. Range
// battles only; fee battles carry no tick bounds.
func (a *Analyzer) placePositions(ctx context.Context, b domain.Battle, analysis *Analysis) error {
	if a.pools == nil {
		return nil
	}
	rec, ok := b.(*domain.RangeBattle)
	if !ok || rec.PoolID == (common.Hash{}) {
		return nil
	}

	state, err := a.pools.State(ctx, rec.PoolID)
	if err != nil {
		return fmt.Errorf("battle %d pool state: %w", b.Core().ID, err)
	}
	analysis.Pool = state

	creator := position.Analyze(state, rec.CreatorTickLower, rec.CreatorTickUpper, 0, 0)
	analysis.CreatorPlacement = &creator
	if rec.Opponent != (common.Address{}) {
		opponent := position.Analyze(state, rec.OpponentTickLower, rec.OpponentTickUpper, 0, 0)
		analysis.OpponentPlacement = &opponent
	}
	return nil
}

// projectScores recomputes both sides' scores from the record's accrued
// counters, the same math resolution will run.
func projectScores(b domain.Battle, now time.Time) (creator, opponent *big.Int) {
	core := b.Core()

	var elapsed uint64
	if core.StartTime > 0 {
		e := now.Unix() - int64(core.StartTime)
		if e > int64(core.Duration) {
			e = int64(core.Duration)
		}
		if e > 0 {
			elapsed = uint64(e)
		}
	}

	switch rec := b.(type) {
	case *domain.RangeBattle:
		creator = scoring.RangeScore(rec.CreatorInRangeTime, elapsed,
			rec.CreatorTickUpper-rec.CreatorTickLower)
		opponent = scoring.RangeScore(rec.OpponentInRangeTime, elapsed,
			rec.OpponentTickUpper-rec.OpponentTickLower)
	case *domain.FeeBattle:
		creator = scoring.FeeScore(rec.CreatorFeesAccrued, rec.CreatorLPValue, elapsed)
		opponent = scoring.FeeScore(rec.OpponentFeesAccrued, rec.OpponentLPValue, elapsed)
	default:
		creator, opponent = new(big.Int), new(big.Int)
	}

	creator = scoring.NormalizeCrossDEX(creator, core.DEX)
	opponent = scoring.NormalizeCrossDEX(opponent, core.DEX)
	return creator, opponent
}

// leader picks the side currently ahead, preferring the arena's live tuple
// over the local projection.
func leader(a *Analysis) string {
	if a.Performance != nil {
		return a.Performance.Leader()
	}
	if a.CreatorProjected == nil || a.OpponentProjected == nil {
		return ""
	}
	if a.CreatorProjected.Sign() == 0 && a.OpponentProjected.Sign() == 0 {
		return ""
	}
	if scoring.CreatorWins(a.CreatorProjected, a.OpponentProjected) {
		return "creator"
	}
	return "opponent"
}

// recommend applies the advisory decision table; the first matching rule
// wins.
func recommend(core *domain.BattleCore, remaining time.Duration, perf *domain.Performance) string {
	if remaining == 0 {
		return "battle expired - resolve now"
	}
	if perf != nil {
		switch {
		case perf.CreatorInRange && perf.OpponentInRange:
			return "both positions in range - consider closing battle"
		case !perf.CreatorInRange && !perf.OpponentInRange:
			return "both positions out of range - waiting for price movement"
		case perf.Leader() == "creator":
			return "creator currently leads"
		default:
			return "opponent currently leads"
		}
	}
	if core.AwaitingOpponent() {
		return "pending - awaiting opponent"
	}
	return "battle not started - monitoring"
}

// ScoreForEntry rates how attractive a battle is to join, 0-100. Only
// battles still waiting for an opponent score at all: base 50, nudged by how
// much clock is left, then clamped.
func ScoreForEntry(b domain.Battle, now time.Time) int {
	core := b.Core()
	if !core.AwaitingOpponent() {
		return 0
	}

	score := 50
	remaining := core.TimeRemaining(now)
	switch {
	case remaining <= time.Hour:
		score += 20
	case remaining <= 6*time.Hour:
		score += 10
	case remaining >= 24*time.Hour:
		score -= 10
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
