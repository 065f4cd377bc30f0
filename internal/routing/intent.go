// Package routing turns entry intents into route options and execution
// plans. Selection tolerates either route family failing; plans are advisory
// and never executed here.
package routing

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"lp-arena-agent/internal/chains"
	"lp-arena-agent/internal/domain"
)

// MinEntryAmount is the advisory floor for entries, 10 USDC in base units.
var MinEntryAmount = big.NewInt(10_000_000)

// NewIntent builds an entry intent with a fresh id, destined for the arena
// chain.
func NewIntent(sourceChain uint64, amount *big.Int, sender common.Address) *domain.Intent {
	return &domain.Intent{
		ID:          uuid.NewString(),
		SourceChain: sourceChain,
		DestChain:   chains.ArenaChainID,
		Amount:      amount,
		Sender:      sender,
	}
}

// Validate checks an intent. Issues make it unusable; advisories are
// warnings the caller may ignore.
func Validate(intent *domain.Intent) domain.Validation {
	v := domain.Validation{Valid: true}

	if intent.Amount == nil || intent.Amount.Sign() <= 0 {
		v.Issues = append(v.Issues, "amount must be positive")
	}
	if !chains.Supported(intent.SourceChain) {
		v.Issues = append(v.Issues, fmt.Sprintf("source chain %d is not supported", intent.SourceChain))
	}
	if !chains.Supported(intent.DestChain) {
		v.Issues = append(v.Issues, fmt.Sprintf("destination chain %d is not supported", intent.DestChain))
	}
	if (intent.TickLower != 0 || intent.TickUpper != 0) && intent.TickLower >= intent.TickUpper {
		v.Issues = append(v.Issues, "tick bounds are inverted")
	}

	if len(v.Issues) > 0 {
		v.Valid = false
		return v
	}

	if intent.SourceChain == intent.DestChain {
		v.Advisories = append(v.Advisories, "funds are already on the destination chain; no bridge needed")
	}
	if intent.Amount.Cmp(MinEntryAmount) < 0 {
		v.Advisories = append(v.Advisories, "amount is below the recommended 10 USDC minimum")
	}

	return v
}
