// Package main provides one-shot route planning: validate an entry intent,
// generate route options from every available family, and print the execution
// plan for the recommended one.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jedib0t/go-pretty/v6/table"

	"lp-arena-agent/internal/aggregator"
	"lp-arena-agent/internal/chains"
	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/routing"
)

func main() {
	// Parse flags
	sourceChain := flag.Uint64("source-chain", 0, "EVM chain id holding the USDC")
	amountStr := flag.String("amount", "", "USDC base units to move (6 decimals)")
	sender := flag.String("sender", os.Getenv("ENTRY_SENDER"), "Address funding the entry")
	battleID := flag.Uint64("battle", 0, "Battle id to join; 0 plans a new battle")
	tickLower := flag.Int("tick-lower", 0, "Desired lower tick bound (optional)")
	tickUpper := flag.Int("tick-upper", 0, "Desired upper tick bound (optional)")
	arenaAddr := flag.String("arena", os.Getenv("ARENA_ADDRESS"), "Arena contract address for the entry step")
	aggregatorURL := flag.String("aggregator-url", os.Getenv("AGGREGATOR_URL"), "Route aggregator API base URL (optional)")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall command timeout")
	flag.Parse()

	// Validate flags
	if *sourceChain == 0 {
		fmt.Fprintln(os.Stderr, "Error: --source-chain is required")
		os.Exit(1)
	}
	amount, ok := new(big.Int).SetString(*amountStr, 10)
	if !ok || amount.Sign() <= 0 {
		fmt.Fprintln(os.Stderr, "Error: --amount must be a positive integer in USDC base units")
		os.Exit(1)
	}
	if !common.IsHexAddress(*sender) {
		fmt.Fprintln(os.Stderr, "Error: --sender must be a valid address")
		os.Exit(1)
	}
	if *arenaAddr != "" && !common.IsHexAddress(*arenaAddr) {
		fmt.Fprintln(os.Stderr, "Error: --arena must be a valid contract address")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var quotes routing.QuoteProvider
	if *aggregatorURL != "" {
		agg, err := aggregator.NewClient(*aggregatorURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating aggregator client: %v\n", err)
			os.Exit(1)
		}
		quotes = agg
	}

	intent := routing.NewIntent(*sourceChain, amount, common.HexToAddress(*sender))
	intent.BattleID = *battleID
	intent.TickLower = int32(*tickLower)
	intent.TickUpper = int32(*tickUpper)

	selector := routing.NewSelector(routing.SelectorOptions{Quotes: quotes})
	result, err := selector.SelectRoutes(ctx, intent)
	if err != nil {
		renderValidation(result.Validation)
		fmt.Fprintf(os.Stderr, "Error selecting routes: %v\n", err)
		os.Exit(1)
	}

	renderIntent(intent)
	renderValidation(result.Validation)
	if !result.Validation.Valid {
		os.Exit(1)
	}
	renderOptions(result.Options)

	// Plan the recommended option; options come back recommended-first.
	planner := routing.NewPlanner(routing.PlannerOptions{ArenaAddress: common.HexToAddress(*arenaAddr)})
	plan, err := planner.BuildPlan(intent, result.Options[0], nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building plan: %v\n", err)
		os.Exit(1)
	}
	renderPlan(plan)
}

func chainName(id uint64) string {
	if c, ok := chains.Get(id); ok {
		return c.Name
	}
	return fmt.Sprintf("chain %d", id)
}

// renderIntent prints what is being planned.
func renderIntent(intent *domain.Intent) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Intent")
	t.AppendRow(table.Row{"From", chainName(intent.SourceChain)})
	t.AppendRow(table.Row{"To", chainName(intent.DestChain)})
	t.AppendRow(table.Row{"Amount", intent.Amount.String() + " USDC base units"})
	t.AppendRow(table.Row{"Sender", intent.Sender.Hex()})
	if intent.BattleID != 0 {
		t.AppendRow(table.Row{"Join battle", intent.BattleID})
	} else {
		t.AppendRow(table.Row{"Entry", "create a new battle"})
	}
	t.Render()
}

// renderValidation prints issues and advisories, if any.
func renderValidation(v domain.Validation) {
	if len(v.Issues) == 0 && len(v.Advisories) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Validation")
	for _, issue := range v.Issues {
		t.AppendRow(table.Row{"ISSUE", issue})
	}
	for _, advisory := range v.Advisories {
		t.AppendRow(table.Row{"advisory", advisory})
	}
	t.Render()
}

// renderOptions prints one row per candidate route.
func renderOptions(options []domain.RouteOption) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Route options")
	t.AppendHeader(table.Row{"Provider", "Tool", "Recommended", "Amount Out", "Fees USD", "Duration", "Steps"})
	for _, o := range options {
		recommended := ""
		if o.Recommended {
			recommended = "yes"
		}
		t.AppendRow(table.Row{
			o.Provider,
			o.Tool,
			recommended,
			o.AmountOut.String(),
			o.FeesUSD.StringFixed(2),
			(time.Duration(o.DurationSec) * time.Second).String(),
			len(o.Steps),
		})
	}
	t.Render()
}

// renderPlan prints every step of the selected plan in execution order.
func renderPlan(plan *domain.ExecutionPlan) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Execution plan (%s)", plan.Provider))
	t.AppendHeader(table.Row{"#", "Step", "Chain", "Tx", "Description"})
	for i, step := range plan.Steps {
		tx := ""
		if step.TxRequired {
			tx = "yes"
		}
		t.AppendRow(table.Row{i + 1, string(step.Kind), chainName(step.ChainID), tx, step.Description})
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("~%.2fM gas across all transactions", plan.GasMillions)})
	t.Render()

	fmt.Println("\nPlans are advisory; no transaction is sent.")
}
