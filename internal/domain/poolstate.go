package domain

import (
	"math/big"
	"time"
)

// Tick bounds representable in the pool's signed 24-bit tick field.
const (
	MinTick int32 = -1 << 23  // -8388608
	MaxTick int32 = 1<<23 - 1 // 8388607
)

// PoolState is one decoded snapshot of a pool's packed slot0 word plus its
// liquidity word, read straight from the pool manager's storage.
type PoolState struct {
	PoolID       string   // hex pool id the state was read for
	SqrtPriceX96 *big.Int // Q64.96 sqrt price, unsigned 160-bit
	Tick         int32    // signed 24-bit tick
	ProtocolFee  uint32   // 24-bit, hundredths of a bip
	LPFee        uint32   // 24-bit, hundredths of a bip
	Liquidity    *big.Int // active in-range liquidity
	FetchedAt    time.Time
}

// Initialized reports whether the pool has been initialized; an uninitialized
// pool reads back as an all-zero slot0 word.
func (s *PoolState) Initialized() bool {
	return s.SqrtPriceX96 != nil && s.SqrtPriceX96.Sign() > 0
}
