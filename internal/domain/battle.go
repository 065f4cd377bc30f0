package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// BattleType discriminates the two battle formats the arena runs.
type BattleType uint8

const (
	BattleTypeRange BattleType = 0 // in-range time competition
	BattleTypeFee   BattleType = 1 // fee productivity competition
)

// String returns the human-readable battle type.
func (t BattleType) String() string {
	switch t {
	case BattleTypeRange:
		return "RANGE"
	case BattleTypeFee:
		return "FEE"
	default:
		return "UNKNOWN"
	}
}

// BattleStatus is the battle lifecycle state. Transitions only move forward:
// PENDING -> ACTIVE -> EXPIRED -> RESOLVED.
type BattleStatus uint8

const (
	BattleStatusPending  BattleStatus = 0 // created, awaiting opponent
	BattleStatusActive   BattleStatus = 1 // both sides staked, clock running
	BattleStatusExpired  BattleStatus = 2 // duration elapsed, not yet resolved
	BattleStatusResolved BattleStatus = 3 // winner decided, rewards paid
)

// String returns the human-readable status.
func (s BattleStatus) String() string {
	switch s {
	case BattleStatusPending:
		return "PENDING"
	case BattleStatusActive:
		return "ACTIVE"
	case BattleStatusExpired:
		return "EXPIRED"
	case BattleStatusResolved:
		return "RESOLVED"
	default:
		return "UNKNOWN"
	}
}

// DEX identifiers registered with the arena's scoring contract.
const (
	DEXUniswapV4 uint8 = 0
	DEXCamelotV3 uint8 = 1
)

// BattleCore holds the fields shared by both battle formats.
type BattleCore struct {
	ID               uint64
	Creator          common.Address
	Opponent         common.Address // zero address until someone joins
	PoolID           common.Hash    // pool the staked positions live in
	DEX              uint8          // DEXUniswapV4 | DEXCamelotV3
	Status           BattleStatus
	StartTime        uint64         // unix seconds; 0 until the battle activates
	Duration         uint64         // configured battle length in seconds
	TotalStake       uint64         // combined stake in USDC base units
	CreatorPosition  uint64         // staked position token id
	OpponentPosition uint64         // staked position token id; 0 until joined
	Winner           common.Address // zero address until RESOLVED
}

// AwaitingOpponent reports whether the battle is open for someone to join.
func (c *BattleCore) AwaitingOpponent() bool {
	return c.Status == BattleStatusPending && c.Opponent == (common.Address{})
}

// TimeRemaining returns how long until the battle's clock runs out.
// Expired and resolved battles always report zero; a battle that has not
// started yet reports its full configured duration.
func (c *BattleCore) TimeRemaining(now time.Time) time.Duration {
	if c.Status >= BattleStatusExpired {
		return 0
	}
	if c.StartTime == 0 {
		return time.Duration(c.Duration) * time.Second
	}
	deadline := time.Unix(int64(c.StartTime+c.Duration), 0)
	remaining := deadline.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Battle is the common view over the two battle formats. Concrete values are
// *RangeBattle or *FeeBattle, picked by the on-chain type discriminant.
type Battle interface {
	Core() *BattleCore
	Type() BattleType
}

// RangeBattle is a RANGE-format battle: whoever keeps their position in range
// longer wins. Tick bounds are fixed at stake time.
type RangeBattle struct {
	BattleCore

	CreatorTickLower    int32
	CreatorTickUpper    int32
	OpponentTickLower   int32
	OpponentTickUpper   int32
	CreatorInRangeTime  uint64 // accrued seconds in range
	OpponentInRangeTime uint64 // accrued seconds in range
}

// Core returns the shared battle fields.
func (b *RangeBattle) Core() *BattleCore { return &b.BattleCore }

// Type returns BattleTypeRange.
func (b *RangeBattle) Type() BattleType { return BattleTypeRange }

// FeeBattle is a FEE-format battle: whoever earns more fees per unit of
// liquidity value over the battle duration wins.
type FeeBattle struct {
	BattleCore

	CreatorFeesAccrued  uint64 // fees earned, USDC base units
	OpponentFeesAccrued uint64 // fees earned, USDC base units
	CreatorLPValue      uint64 // position value, USDC base units
	OpponentLPValue     uint64 // position value, USDC base units
}

// Core returns the shared battle fields.
func (b *FeeBattle) Core() *BattleCore { return &b.BattleCore }

// Type returns BattleTypeFee.
func (b *FeeBattle) Type() BattleType { return BattleTypeFee }

// Performance is the live score tuple the arena reports for a running battle.
// Scores are 1e18 fixed-point, same precision the scoring contract resolves on.
type Performance struct {
	CreatorScore    *big.Int
	OpponentScore   *big.Int
	CreatorInRange  bool
	OpponentInRange bool
}

// Leader returns which side is currently ahead; ties go to the creator,
// matching the resolution rule.
func (p *Performance) Leader() string {
	if p.CreatorScore.Cmp(p.OpponentScore) >= 0 {
		return "creator"
	}
	return "opponent"
}
