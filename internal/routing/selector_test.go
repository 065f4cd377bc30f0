package routing

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"lp-arena-agent/internal/aggregator"
	"lp-arena-agent/internal/chains"
	"lp-arena-agent/internal/domain"
)

type fakeQuotes struct {
	quote *aggregator.Quote
	err   error
	calls int
}

func (f *fakeQuotes) Quote(ctx context.Context, req aggregator.QuoteRequest) (*aggregator.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

func testIntent() *domain.Intent {
	return NewIntent(1, big.NewInt(50_000_000), common.HexToAddress("0x1111111111111111111111111111111111111111"))
}

func testQuote() *aggregator.Quote {
	return &aggregator.Quote{
		Tool: "stargateV2",
		Estimate: aggregator.Estimate{
			ToAmount:          "49500000",
			ExecutionDuration: 120,
			FeeCosts:          []aggregator.Cost{{Name: "protocol", AmountUSD: "0.30"}},
			GasCosts:          []aggregator.Cost{{Name: "send", AmountUSD: "0.45"}},
		},
		TransactionRequest: &aggregator.TxRequest{
			To:   "0x2222222222222222222222222222222222222222",
			Data: "0xdeadbeef",
		},
	}
}

func TestValidateRejectsBadIntents(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Intent)
	}{
		{"nil amount", func(in *domain.Intent) { in.Amount = nil }},
		{"zero amount", func(in *domain.Intent) { in.Amount = big.NewInt(0) }},
		{"negative amount", func(in *domain.Intent) { in.Amount = big.NewInt(-5) }},
		{"unsupported source", func(in *domain.Intent) { in.SourceChain = 5 }},
		{"unsupported destination", func(in *domain.Intent) { in.DestChain = 56 }},
		{"inverted ticks", func(in *domain.Intent) { in.TickLower = 100; in.TickUpper = -100 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testIntent()
			tt.mutate(in)
			v := Validate(in)
			if v.Valid {
				t.Fatalf("Validate() = valid, want invalid")
			}
			if len(v.Issues) == 0 {
				t.Fatalf("Validate() reported no issues")
			}
		})
	}
}

func TestValidateAdvisories(t *testing.T) {
	sameChain := testIntent()
	sameChain.SourceChain = chains.ArenaChainID
	v := Validate(sameChain)
	if !v.Valid {
		t.Fatalf("Validate() = invalid: %v", v.Issues)
	}
	if len(v.Advisories) != 1 {
		t.Fatalf("advisories = %v, want one about skipping the bridge", v.Advisories)
	}

	small := testIntent()
	small.Amount = big.NewInt(1_000_000)
	v = Validate(small)
	if !v.Valid {
		t.Fatalf("Validate() = invalid: %v", v.Issues)
	}
	if len(v.Advisories) != 1 {
		t.Fatalf("advisories = %v, want one about the minimum", v.Advisories)
	}
}

func TestSelectRoutesBothFamilies(t *testing.T) {
	quotes := &fakeQuotes{quote: testQuote()}
	sel := NewSelector(SelectorOptions{Quotes: quotes})

	res, err := sel.SelectRoutes(context.Background(), testIntent())
	if err != nil {
		t.Fatalf("SelectRoutes() error = %v", err)
	}
	if !res.Validation.Valid {
		t.Fatalf("validation = %v, want valid", res.Validation.Issues)
	}
	if len(res.Options) != 2 {
		t.Fatalf("options = %d, want 2", len(res.Options))
	}
	first, second := res.Options[0], res.Options[1]
	if first.Provider != domain.ProviderAggregator || !first.Recommended {
		t.Errorf("first option = %s recommended=%v, want the recommended aggregator", first.Provider, first.Recommended)
	}
	if second.Provider != domain.ProviderNativeBridge || second.Recommended {
		t.Errorf("second option = %s recommended=%v, want the non-recommended native bridge", second.Provider, second.Recommended)
	}
}

func TestSelectRoutesAggregatorMapping(t *testing.T) {
	quotes := &fakeQuotes{quote: testQuote()}
	sel := NewSelector(SelectorOptions{Quotes: quotes})

	res, err := sel.SelectRoutes(context.Background(), testIntent())
	if err != nil {
		t.Fatalf("SelectRoutes() error = %v", err)
	}
	opt := res.Options[0]

	if opt.Tool != "stargateV2" {
		t.Errorf("Tool = %q, want stargateV2", opt.Tool)
	}
	if opt.AmountOut.Cmp(big.NewInt(49_500_000)) != 0 {
		t.Errorf("AmountOut = %s, want 49500000", opt.AmountOut)
	}
	if got := opt.FeesUSD.String(); got != "0.75" {
		t.Errorf("FeesUSD = %s, want 0.75", got)
	}
	if opt.DurationSec != 120 {
		t.Errorf("DurationSec = %d, want 120", opt.DurationSec)
	}
	if len(opt.Steps) != 2 {
		t.Fatalf("steps = %d, want approve then swap", len(opt.Steps))
	}

	approve, swap := opt.Steps[0], opt.Steps[1]
	source, _ := chains.Get(1)
	if approve.Kind != domain.StepApprove || approve.To != source.USDC {
		t.Errorf("approve step = %s to %s, want %s to %s", approve.Kind, approve.To, domain.StepApprove, source.USDC)
	}
	if len(approve.Calldata) != 4+32*2 {
		t.Errorf("approve calldata = %d bytes, want %d", len(approve.Calldata), 4+32*2)
	}
	router := common.HexToAddress("0x2222222222222222222222222222222222222222")
	if swap.Kind != domain.StepAggregatorSwap || swap.To != router {
		t.Errorf("swap step = %s to %s, want %s to %s", swap.Kind, swap.To, domain.StepAggregatorSwap, router)
	}
	if common.Bytes2Hex(swap.Calldata) != "deadbeef" {
		t.Errorf("swap calldata = %x, want deadbeef", swap.Calldata)
	}
}

func TestSelectRoutesQuoteWithoutTransaction(t *testing.T) {
	q := testQuote()
	q.TransactionRequest = nil
	sel := NewSelector(SelectorOptions{Quotes: &fakeQuotes{quote: q}})

	res, err := sel.SelectRoutes(context.Background(), testIntent())
	if err != nil {
		t.Fatalf("SelectRoutes() error = %v", err)
	}
	opt := res.Options[0]
	if len(opt.Steps) != 1 || opt.Steps[0].Kind != domain.StepAggregatorSwap {
		t.Fatalf("steps = %+v, want a single swap step", opt.Steps)
	}
}

func TestSelectRoutesNativeSurvivesAggregatorFailure(t *testing.T) {
	quotes := &fakeQuotes{err: fmt.Errorf("upstream is down")}
	sel := NewSelector(SelectorOptions{Quotes: quotes})

	res, err := sel.SelectRoutes(context.Background(), testIntent())
	if err != nil {
		t.Fatalf("SelectRoutes() error = %v", err)
	}
	if len(res.Options) != 1 {
		t.Fatalf("options = %d, want the native fallback alone", len(res.Options))
	}
	if res.Options[0].Provider != domain.ProviderNativeBridge {
		t.Errorf("provider = %s, want %s", res.Options[0].Provider, domain.ProviderNativeBridge)
	}
}

func TestSelectRoutesWithoutAggregator(t *testing.T) {
	sel := NewSelector(SelectorOptions{})

	res, err := sel.SelectRoutes(context.Background(), testIntent())
	if err != nil {
		t.Fatalf("SelectRoutes() error = %v", err)
	}
	if len(res.Options) != 1 || res.Options[0].Provider != domain.ProviderNativeBridge {
		t.Fatalf("options = %+v, want native only", res.Options)
	}
}

func TestSelectRoutesInvalidIntentSkipsFamilies(t *testing.T) {
	quotes := &fakeQuotes{quote: testQuote()}
	sel := NewSelector(SelectorOptions{Quotes: quotes})

	in := testIntent()
	in.Amount = nil
	res, err := sel.SelectRoutes(context.Background(), in)
	if err != nil {
		t.Fatalf("SelectRoutes() error = %v", err)
	}
	if res.Validation.Valid {
		t.Fatalf("validation = valid, want invalid")
	}
	if len(res.Options) != 0 {
		t.Errorf("options = %d, want none for an invalid intent", len(res.Options))
	}
	if quotes.calls != 0 {
		t.Errorf("quote calls = %d, want 0", quotes.calls)
	}
}
