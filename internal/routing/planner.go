package routing

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"lp-arena-agent/internal/domain"
)

// DefaultRangeWidth is the tick span used for the liquidity position when
// the intent carries no bounds and no pool state is at hand.
const DefaultRangeWidth = 200

// gasMillions holds per-step gas estimates in millions of gas units.
// Attestation waits burn time, not gas, so they are absent.
var gasMillions = map[domain.StepKind]float64{
	domain.StepApprove:        0.06,
	domain.StepBridgeBurn:     0.12,
	domain.StepBridgeMint:     0.18,
	domain.StepAggregatorSwap: 0.45,
	domain.StepSwap:           0.25,
	domain.StepAddLiquidity:   0.40,
	domain.StepCreateBattle:   0.50,
	domain.StepJoinBattle:     0.35,
}

// Planner turns a selected route into a full execution plan ending at the
// arena contract.
type Planner struct {
	arena      common.Address
	rangeWidth int32
}

// PlannerOptions configures a Planner.
type PlannerOptions struct {
	ArenaAddress common.Address
	RangeWidth   int32 // defaults to DefaultRangeWidth
}

// NewPlanner builds a planner for the given arena deployment.
func NewPlanner(opts PlannerOptions) *Planner {
	if opts.RangeWidth <= 0 {
		opts.RangeWidth = DefaultRangeWidth
	}
	return &Planner{arena: opts.ArenaAddress, rangeWidth: opts.RangeWidth}
}

// BuildPlan appends the arena entry tail to the route's own steps: swap half
// the bridged USDC into the pool's other token, mint the liquidity position,
// then create or join the battle. Pool state is optional and only sharpens
// the tick bounds.
func (p *Planner) BuildPlan(intent *domain.Intent, route domain.RouteOption, state *domain.PoolState) (*domain.ExecutionPlan, error) {
	if intent == nil {
		return nil, fmt.Errorf("build plan: nil intent")
	}
	if len(route.Steps) == 0 {
		return nil, fmt.Errorf("build plan: route %s has no steps", route.ID)
	}

	steps := make([]domain.Step, 0, len(route.Steps)+3)
	steps = append(steps, route.Steps...)

	half := new(big.Int)
	if route.AmountOut != nil {
		half.Rsh(route.AmountOut, 1)
	}
	steps = append(steps, domain.Step{
		Kind:        domain.StepSwap,
		ChainID:     intent.DestChain,
		Description: fmt.Sprintf("swap %s USDC base units into the pool's paired token", half),
		TxRequired:  true,
	})

	lower, upper := p.tickBounds(intent, state)
	steps = append(steps, domain.Step{
		Kind:        domain.StepAddLiquidity,
		ChainID:     intent.DestChain,
		Description: fmt.Sprintf("add liquidity between ticks %d and %d", lower, upper),
		TxRequired:  true,
	})

	entry := domain.Step{
		Kind:        domain.StepCreateBattle,
		ChainID:     intent.DestChain,
		Description: "create a new battle with the minted position",
		To:          p.arena,
		TxRequired:  true,
	}
	if intent.BattleID != 0 {
		entry.Kind = domain.StepJoinBattle
		entry.Description = fmt.Sprintf("join battle %d with the minted position", intent.BattleID)
	}
	steps = append(steps, entry)

	return &domain.ExecutionPlan{
		PlanID:      uuid.NewString(),
		IntentID:    intent.ID,
		RouteID:     route.ID,
		Provider:    route.Provider,
		Steps:       steps,
		GasMillions: GasEstimateMillions(steps),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// tickBounds resolves the liquidity range: intent bounds win, then a band
// centered on the live tick, then a band around zero.
func (p *Planner) tickBounds(intent *domain.Intent, state *domain.PoolState) (int32, int32) {
	if intent.TickLower != 0 || intent.TickUpper != 0 {
		return intent.TickLower, intent.TickUpper
	}
	center := int32(0)
	if state != nil && state.Initialized() {
		center = state.Tick
	}
	return center - p.rangeWidth/2, center + p.rangeWidth/2
}

// GasEstimateMillions sums the static per-kind estimates over the plan's
// steps, in millions of gas units.
func GasEstimateMillions(steps []domain.Step) float64 {
	var total float64
	for _, step := range steps {
		total += gasMillions[step.Kind]
	}
	return total
}
