package routing

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lp-arena-agent/internal/aggregator"
	"lp-arena-agent/internal/bridge"
	"lp-arena-agent/internal/chains"
	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/logger"
)

// QuoteProvider is the aggregator surface the selector depends on;
// *aggregator.Client satisfies it.
type QuoteProvider interface {
	Quote(ctx context.Context, req aggregator.QuoteRequest) (*aggregator.Quote, error)
}

// Result is the outcome of selecting routes for one intent.
type Result struct {
	Intent     *domain.Intent
	Validation domain.Validation
	Options    []domain.RouteOption // recommended first
}

// Selector generates route options from both families in parallel.
type Selector struct {
	quotes QuoteProvider // nil disables the aggregator family
	log    *zap.SugaredLogger
}

// SelectorOptions configures a Selector.
type SelectorOptions struct {
	Quotes QuoteProvider
	Logger *zap.SugaredLogger
}

// NewSelector builds a selector. A nil quote provider leaves only the native
// family available.
func NewSelector(opts SelectorOptions) *Selector {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	return &Selector{
		quotes: opts.Quotes,
		log:    opts.Logger,
	}
}

// SelectRoutes validates the intent and generates candidates from the
// aggregator and the native bridge concurrently. One family failing only
// narrows the options; an error comes back when every family fails.
func (s *Selector) SelectRoutes(ctx context.Context, intent *domain.Intent) (*Result, error) {
	result := &Result{
		Intent:     intent,
		Validation: Validate(intent),
	}
	if !result.Validation.Valid {
		return result, nil
	}

	var (
		mu      sync.Mutex
		options []domain.RouteOption
		errs    []error
	)
	add := func(opt domain.RouteOption, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
			return
		}
		options = append(options, opt)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if s.quotes == nil {
			add(domain.RouteOption{}, fmt.Errorf("aggregator not configured"))
			return
		}
		opt, err := s.aggregatorRoute(ctx, intent)
		if err != nil {
			s.log.Warnw("aggregator route unavailable", "intent", intent.ID, "err", err)
		}
		add(opt, err)
	}()

	go func() {
		defer wg.Done()
		opt, err := bridge.BuildRoute(intent)
		if err != nil {
			s.log.Warnw("native route unavailable", "intent", intent.ID, "err", err)
		}
		add(opt, err)
	}()

	wg.Wait()

	if len(options) == 0 {
		return result, fmt.Errorf("no route family available: %v", errs)
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Recommended && !options[j].Recommended
	})
	result.Options = options
	return result, nil
}

// aggregatorRoute asks the quote API and maps its best route onto steps.
func (s *Selector) aggregatorRoute(ctx context.Context, intent *domain.Intent) (domain.RouteOption, error) {
	source, _ := chains.Get(intent.SourceChain)
	dest, _ := chains.Get(intent.DestChain)

	quote, err := s.quotes.Quote(ctx, aggregator.QuoteRequest{
		FromChain:   intent.SourceChain,
		ToChain:     intent.DestChain,
		FromToken:   source.USDC.Hex(),
		ToToken:     dest.USDC.Hex(),
		FromAmount:  intent.Amount.String(),
		FromAddress: intent.Sender.Hex(),
	})
	if err != nil {
		return domain.RouteOption{}, fmt.Errorf("aggregator quote: %w", err)
	}

	amountOut, ok := new(big.Int).SetString(quote.Estimate.ToAmount, 10)
	if !ok {
		return domain.RouteOption{}, fmt.Errorf("aggregator quote: bad destination amount %q", quote.Estimate.ToAmount)
	}

	fees := decimal.Zero
	for _, cost := range quote.Estimate.FeeCosts {
		if d, err := decimal.NewFromString(cost.AmountUSD); err == nil {
			fees = fees.Add(d)
		}
	}
	for _, cost := range quote.Estimate.GasCosts {
		if d, err := decimal.NewFromString(cost.AmountUSD); err == nil {
			fees = fees.Add(d)
		}
	}

	swap := domain.Step{
		Kind:        domain.StepAggregatorSwap,
		ChainID:     intent.SourceChain,
		Description: fmt.Sprintf("bridge and swap via %s to %s", quote.Tool, dest.Name),
		TxRequired:  true,
	}
	var steps []domain.Step
	if quote.TransactionRequest != nil && quote.TransactionRequest.To != "" {
		router := common.HexToAddress(quote.TransactionRequest.To)
		steps = append(steps, domain.Step{
			Kind:        domain.StepApprove,
			ChainID:     intent.SourceChain,
			Description: fmt.Sprintf("approve %s USDC base units for the aggregator router", intent.Amount),
			To:          source.USDC,
			Calldata:    bridge.ApproveCalldata(router, intent.Amount),
			TxRequired:  true,
		})
		swap.To = router
		swap.Calldata = common.FromHex(quote.TransactionRequest.Data)
	}
	steps = append(steps, swap)

	return domain.RouteOption{
		ID:          uuid.NewString(),
		Provider:    domain.ProviderAggregator,
		Tool:        quote.Tool,
		Recommended: true,
		Steps:       steps,
		AmountOut:   amountOut,
		FeesUSD:     fees,
		DurationSec: quote.Estimate.ExecutionDuration,
	}, nil
}
