package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Intent describes funds on a source chain that want to end up staked in an
// arena battle on the destination chain.
type Intent struct {
	ID          string         // uuid
	SourceChain uint64         // EVM chain id the funds sit on
	DestChain   uint64         // EVM chain id of the arena
	Amount      *big.Int       // USDC base units (6 decimals)
	Sender      common.Address
	BattleID    uint64 // 0 = create a new battle, otherwise join this one
	TickLower   int32  // desired position bounds; both zero = derive from pool
	TickUpper   int32
}

// Validation is the outcome of checking an intent. Issues make the intent
// unusable; advisories are warnings the caller may ignore.
type Validation struct {
	Valid      bool
	Issues     []string
	Advisories []string
}

// StepKind identifies one leg of a route or plan.
type StepKind string

const (
	StepApprove         StepKind = "approve"
	StepBridgeBurn      StepKind = "bridge_burn"
	StepWaitAttestation StepKind = "wait_attestation"
	StepBridgeMint      StepKind = "bridge_mint"
	StepAggregatorSwap  StepKind = "aggregator_swap"
	StepSwap            StepKind = "swap"
	StepAddLiquidity    StepKind = "add_liquidity"
	StepCreateBattle    StepKind = "create_battle"
	StepJoinBattle      StepKind = "join_battle"
)

// Step is one leg of a route or execution plan. Steps that require no
// transaction (attestation waits) carry TxRequired=false.
type Step struct {
	Kind        StepKind
	ChainID     uint64
	Description string
	To          common.Address // contract the transaction targets, when TxRequired
	Calldata    []byte         // ABI-encoded call, when known ahead of time
	TxRequired  bool
}

// Route providers.
const (
	ProviderAggregator   = "aggregator"
	ProviderNativeBridge = "cctp"
)

// RouteOption is one way to move the intent's funds to the destination chain.
type RouteOption struct {
	ID          string // uuid
	Provider    string // ProviderAggregator | ProviderNativeBridge
	Tool        string // aggregator tool name, or "native-usdc"
	Recommended bool
	Steps       []Step
	AmountOut   *big.Int        // USDC base units arriving on the destination
	FeesUSD     decimal.Decimal // total fees in USD
	DurationSec int64           // estimated end-to-end seconds
}

// ExecutionPlan is a selected route plus the fixed entry tail: swap half the
// arriving balance, add liquidity, create or join a battle. Plans are
// advisory; nothing executes them automatically.
type ExecutionPlan struct {
	PlanID      string // uuid
	IntentID    string
	RouteID     string
	Provider    string
	Steps       []Step
	GasMillions float64 // static estimate, millions of gas across all tx steps
	CreatedAt   time.Time
}
