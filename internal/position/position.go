// Package position holds the pure tick and price math for LP positions.
package position

import (
	"math"
	"math/big"

	"lp-arena-agent/internal/domain"
)

// InRange reports whether the pool tick sits inside [lower, upper).
// The upper bound is exclusive, matching how pools accrue fees.
func InRange(tick, lower, upper int32) bool {
	return lower <= tick && tick < upper
}

// Normalized maps the tick to its relative place in [lower, upper), clamped
// to [0, 1]. A degenerate range (upper <= lower) reports 0.
func Normalized(tick, lower, upper int32) float64 {
	width := int64(upper) - int64(lower)
	if width <= 0 {
		return 0
	}
	pos := float64(int64(tick)-int64(lower)) / float64(width)
	if pos < 0 {
		return 0
	}
	if pos > 1 {
		return 1
	}
	return pos
}

// Width returns the tick width of the range, zero when degenerate.
func Width(lower, upper int32) int32 {
	if upper <= lower {
		return 0
	}
	return upper - lower
}

// Price converts a Q64.96 sqrt price into a human price of token1 per token0,
// adjusted for the tokens' decimal difference:
// (sqrtPrice / 2^96)^2 * 10^(dec0-dec1).
func Price(sqrtPriceX96 *big.Int, dec0, dec1 int) float64 {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0
	}
	sqrt, _ := new(big.Float).Quo(
		new(big.Float).SetInt(sqrtPriceX96),
		new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96)),
	).Float64()
	return sqrt * sqrt * math.Pow(10, float64(dec0-dec1))
}

// Status is one position measured against current pool state.
type Status struct {
	InRange    bool
	Normalized float64 // 0 at the lower bound, 1 at the upper
	Width      int32
	Price      float64 // pool price at the snapshot
}

// Analyze measures a position's range against a pool snapshot.
func Analyze(state *domain.PoolState, lower, upper int32, dec0, dec1 int) Status {
	return Status{
		InRange:    InRange(state.Tick, lower, upper),
		Normalized: Normalized(state.Tick, lower, upper),
		Width:      Width(lower, upper),
		Price:      Price(state.SqrtPriceX96, dec0, dec1),
	}
}
