// Package bridge synthesizes native USDC burn/mint routes. Everything here
// is static table lookup and calldata encoding; no network access.
package bridge

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lp-arena-agent/internal/chains"
	"lp-arena-agent/internal/domain"
)

// AttestationBaseURL is Circle's attestation service; the wait step points
// executors at it.
const AttestationBaseURL = "https://iris-api.circle.com"

// EstimatedDurationSec covers burn finality plus attestation availability.
const EstimatedDurationSec = 900

var (
	approveSelector        = crypto.Keccak256([]byte("approve(address,uint256)"))[:4]
	depositForBurnSelector = crypto.Keccak256([]byte("depositForBurn(uint256,uint32,bytes32,address)"))[:4]
)

// ApproveCalldata encodes approve(spender, amount). Shared with the
// aggregator route family, which prefixes its swap with the same approval.
func ApproveCalldata(spender common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 4+32*2)
	data = append(data, approveSelector...)
	data = append(data, common.LeftPadBytes(spender.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}

// burnCalldata encodes depositForBurn(amount, destinationDomain,
// mintRecipient, burnToken). The recipient address widens to bytes32.
func burnCalldata(amount *big.Int, destDomain uint32, recipient common.Address, burnToken common.Address) []byte {
	data := make([]byte, 0, 4+32*4)
	data = append(data, depositForBurnSelector...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(new(big.Int).SetUint64(uint64(destDomain)).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(recipient.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(burnToken.Bytes(), 32)...)
	return data
}

// BuildRoute synthesizes the native USDC path for an intent: approve the
// token messenger, burn on the source chain, wait for the attestation, mint
// on the destination. Arrival is 1:1 with the burned amount.
func BuildRoute(intent *domain.Intent) (domain.RouteOption, error) {
	source, ok := chains.Get(intent.SourceChain)
	if !ok {
		return domain.RouteOption{}, fmt.Errorf("source chain %d not supported", intent.SourceChain)
	}
	dest, ok := chains.Get(intent.DestChain)
	if !ok {
		return domain.RouteOption{}, fmt.Errorf("destination chain %d not supported", intent.DestChain)
	}

	steps := []domain.Step{
		{
			Kind:        domain.StepApprove,
			ChainID:     source.ID,
			Description: fmt.Sprintf("approve %s USDC base units for the token messenger", intent.Amount),
			To:          source.USDC,
			Calldata:    ApproveCalldata(source.TokenMessenger, intent.Amount),
			TxRequired:  true,
		},
		{
			Kind:        domain.StepBridgeBurn,
			ChainID:     source.ID,
			Description: fmt.Sprintf("burn USDC on %s for native transfer to %s", source.Name, dest.Name),
			To:          source.TokenMessenger,
			Calldata:    burnCalldata(intent.Amount, dest.BridgeDomain, intent.Sender, source.USDC),
			TxRequired:  true,
		},
		{
			Kind:        domain.StepWaitAttestation,
			ChainID:     source.ID,
			Description: fmt.Sprintf("wait for burn attestation from %s", AttestationBaseURL),
			TxRequired:  false,
		},
		{
			Kind:        domain.StepBridgeMint,
			ChainID:     dest.ID,
			Description: fmt.Sprintf("mint USDC on %s with the attested message", dest.Name),
			To:          dest.MessageTransmitter,
			TxRequired:  true,
		},
	}

	return domain.RouteOption{
		ID:          uuid.NewString(),
		Provider:    domain.ProviderNativeBridge,
		Tool:        "native-usdc",
		Recommended: false,
		Steps:       steps,
		AmountOut:   new(big.Int).Set(intent.Amount),
		FeesUSD:     decimal.Zero,
		DurationSec: EstimatedDurationSec,
	}, nil
}
