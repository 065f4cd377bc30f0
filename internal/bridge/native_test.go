package bridge

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"lp-arena-agent/internal/chains"
	"lp-arena-agent/internal/domain"
)

func TestBuildRoute(t *testing.T) {
	intent := &domain.Intent{
		ID:          "intent-1",
		SourceChain: 8453,
		DestChain:   chains.ArenaChainID,
		Amount:      big.NewInt(250_000_000), // 250 USDC
		Sender:      common.HexToAddress("0x00000000000000000000000000000000000000aa"),
	}

	route, err := BuildRoute(intent)
	if err != nil {
		t.Fatalf("BuildRoute failed: %v", err)
	}

	if route.Provider != domain.ProviderNativeBridge {
		t.Errorf("provider: got %q", route.Provider)
	}
	if route.Recommended {
		t.Error("native route must not be marked recommended")
	}
	if route.AmountOut.Cmp(intent.Amount) != 0 {
		t.Errorf("amount out: got %s, want %s (1:1)", route.AmountOut, intent.Amount)
	}

	wantKinds := []domain.StepKind{
		domain.StepApprove,
		domain.StepBridgeBurn,
		domain.StepWaitAttestation,
		domain.StepBridgeMint,
	}
	if len(route.Steps) != len(wantKinds) {
		t.Fatalf("steps: got %d, want %d", len(route.Steps), len(wantKinds))
	}
	for i, kind := range wantKinds {
		if route.Steps[i].Kind != kind {
			t.Errorf("step %d: got %s, want %s", i, route.Steps[i].Kind, kind)
		}
	}

	// The wait step is the only one without a transaction.
	for i, step := range route.Steps {
		wantTx := step.Kind != domain.StepWaitAttestation
		if step.TxRequired != wantTx {
			t.Errorf("step %d (%s): TxRequired=%v, want %v", i, step.Kind, step.TxRequired, wantTx)
		}
	}

	// Burn happens on the source chain, mint on the destination.
	if route.Steps[1].ChainID != 8453 {
		t.Errorf("burn chain: got %d, want 8453", route.Steps[1].ChainID)
	}
	if route.Steps[3].ChainID != chains.ArenaChainID {
		t.Errorf("mint chain: got %d, want %d", route.Steps[3].ChainID, chains.ArenaChainID)
	}
}

func TestBuildRouteCalldata(t *testing.T) {
	sender := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	intent := &domain.Intent{
		SourceChain: 1,
		DestChain:   chains.ArenaChainID,
		Amount:      big.NewInt(1_000_000),
		Sender:      sender,
	}

	route, err := BuildRoute(intent)
	if err != nil {
		t.Fatalf("BuildRoute failed: %v", err)
	}

	burn := route.Steps[1].Calldata
	if len(burn) != 4+32*4 {
		t.Fatalf("burn calldata length: got %d, want %d", len(burn), 4+32*4)
	}
	if !bytes.Equal(burn[:4], depositForBurnSelector) {
		t.Error("burn calldata must start with the depositForBurn selector")
	}

	// Word 1 is the amount, word 3 the mint recipient widened to 32 bytes.
	amountWord := new(big.Int).SetBytes(burn[4 : 4+32])
	if amountWord.Cmp(intent.Amount) != 0 {
		t.Errorf("amount word: got %s, want %s", amountWord, intent.Amount)
	}
	recipientWord := burn[4+32*2 : 4+32*3]
	if !bytes.Equal(recipientWord, common.LeftPadBytes(sender.Bytes(), 32)) {
		t.Error("recipient word must be the sender left-padded to 32 bytes")
	}

	approve := route.Steps[0].Calldata
	if !bytes.Equal(approve[:4], approveSelector) {
		t.Error("approve calldata must start with the approve selector")
	}

	source, _ := chains.Get(1)
	spenderWord := approve[4 : 4+32]
	if !bytes.Equal(spenderWord, common.LeftPadBytes(source.TokenMessenger.Bytes(), 32)) {
		t.Error("approve spender must be the source token messenger")
	}
}

func TestBuildRouteUnsupportedChain(t *testing.T) {
	intent := &domain.Intent{
		SourceChain: 99999,
		DestChain:   chains.ArenaChainID,
		Amount:      big.NewInt(1),
	}
	if _, err := BuildRoute(intent); err == nil {
		t.Fatal("expected error for unsupported source chain")
	}
}
