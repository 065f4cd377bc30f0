// Package scoring mirrors the arena's on-chain scoring math so the agent's
// displayed scores match what resolution pays on. All battle scores are 1e18
// fixed-point integers.
package scoring

import "math/big"

// Contract constants.
const (
	// MaxBPS is the basis-point denominator.
	MaxBPS = 10_000
	// TightRangeThreshold is the tick width under which range battles earn a
	// concentration bonus.
	TightRangeThreshold = 100
)

var (
	// ScoreDecimals is the 1e18 fixed-point scale.
	ScoreDecimals = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	// TightRangeBonus is the maximum bonus multiplier, 0.2 in 1e18 terms.
	TightRangeBonus = new(big.Int).Mul(big.NewInt(2), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))

	// dexWeightBPS holds per-DEX score weights; index is the registered DEX id.
	dexWeightBPS = []int64{10_000, 10_000}
)

// RangeScore scores a RANGE battle side: the fraction of the battle spent in
// range, scaled to 1e18, plus a bonus for tight ranges. A range narrower than
// the threshold earns up to +20%, scaling linearly as the width shrinks.
func RangeScore(inRangeTime, totalTime uint64, tickWidth int32) *big.Int {
	if totalTime == 0 {
		return new(big.Int)
	}

	base := new(big.Int).SetUint64(inRangeTime)
	base.Mul(base, ScoreDecimals)
	base.Div(base, new(big.Int).SetUint64(totalTime))

	if tickWidth < 0 {
		tickWidth = 0
	}
	if uint64(tickWidth) >= TightRangeThreshold {
		return base
	}

	// bonus = maxBonus * (threshold - width) / threshold
	bonus := new(big.Int).SetInt64(TightRangeThreshold - int64(tickWidth))
	bonus.Mul(bonus, TightRangeBonus)
	bonus.Div(bonus, big.NewInt(TightRangeThreshold))

	extra := new(big.Int).Mul(base, bonus)
	extra.Div(extra, ScoreDecimals)

	return base.Add(base, extra)
}

// FeeScore scores a FEE battle side: fees earned per unit of position value
// per second, scaled to 1e18. Zero value or duration scores zero.
func FeeScore(feesAccrued, lpValue, duration uint64) *big.Int {
	if lpValue == 0 || duration == 0 {
		return new(big.Int)
	}

	score := new(big.Int).SetUint64(feesAccrued)
	score.Mul(score, ScoreDecimals)

	denom := new(big.Int).SetUint64(lpValue)
	denom.Mul(denom, new(big.Int).SetUint64(duration))

	return score.Div(score, denom)
}

// CreatorWins decides the winner from final scores; the creator takes ties.
func CreatorWins(creatorScore, opponentScore *big.Int) bool {
	return creatorScore.Cmp(opponentScore) >= 0
}

// SplitRewards divides the staked total between winner and resolver. The
// resolver's cut is resolverBps of the total; at or above 10000 bps the
// resolver takes everything.
func SplitRewards(total *big.Int, resolverBps uint32) (winner, resolver *big.Int) {
	if uint64(resolverBps) >= MaxBPS {
		return new(big.Int), new(big.Int).Set(total)
	}

	resolver = new(big.Int).Mul(total, new(big.Int).SetUint64(uint64(resolverBps)))
	resolver.Div(resolver, big.NewInt(MaxBPS))

	winner = new(big.Int).Sub(total, resolver)
	return winner, resolver
}

// NormalizeCrossDEX rescales a score by the DEX's registered weight so
// battles staked on different DEXes compare fairly. Unknown DEX ids pass
// through unweighted.
func NormalizeCrossDEX(score *big.Int, dexID uint8) *big.Int {
	weight := int64(MaxBPS)
	if int(dexID) < len(dexWeightBPS) {
		weight = dexWeightBPS[dexID]
	}

	out := new(big.Int).Mul(score, big.NewInt(weight))
	return out.Div(out, big.NewInt(MaxBPS))
}
