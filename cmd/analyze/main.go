// Package main provides one-shot battle analysis against a live arena
// deployment. With --battle it prints one battle in detail; without it,
// every non-resolved battle gets a summary row.
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

	"lp-arena-agent/internal/battle"
	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/evm"
	"lp-arena-agent/internal/poolstate"
	"lp-arena-agent/internal/position"
	"lp-arena-agent/internal/registry"
)

func main() {
	// Parse flags
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("ARBITRUM_RPC_ENDPOINT"), "Arbitrum RPC HTTP endpoint")
	arenaAddr := flag.String("arena", os.Getenv("ARENA_ADDRESS"), "Arena contract address")
	poolManagerAddr := flag.String("pool-manager", os.Getenv("POOL_MANAGER_ADDRESS"), "Pool manager contract address (optional)")
	battleID := flag.Uint64("battle", 0, "Battle id to analyze; 0 analyzes every non-resolved battle")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall command timeout")
	flag.Parse()

	// Validate flags
	if *rpcEndpoint == "" {
		fmt.Fprintln(os.Stderr, "Error: --rpc-endpoint is required")
		os.Exit(1)
	}
	if !common.IsHexAddress(*arenaAddr) {
		fmt.Fprintln(os.Stderr, "Error: --arena must be a valid contract address")
		os.Exit(1)
	}
	if *poolManagerAddr != "" && !common.IsHexAddress(*poolManagerAddr) {
		fmt.Fprintln(os.Stderr, "Error: --pool-manager must be a valid contract address")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := evm.Dial(ctx, *rpcEndpoint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to RPC: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	reg := registry.NewClient(client, common.HexToAddress(*arenaAddr), common.Address{})
	analyzer := battle.NewAnalyzer(reg)
	if *poolManagerAddr != "" {
		analyzer = analyzer.WithPools(poolstate.NewReader(client, common.HexToAddress(*poolManagerAddr)))
	}

	if *battleID != 0 {
		analysis, err := analyzer.Analyze(ctx, *battleID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error analyzing battle %d: %v\n", *battleID, err)
			os.Exit(1)
		}
		renderDetail(analysis)
		return
	}

	analyses, failures := scanAll(ctx, reg, analyzer)
	if len(analyses) == 0 && failures == 0 {
		fmt.Println("No non-resolved battles found.")
		return
	}
	renderSummary(analyses)
	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d battle(s) could not be analyzed, see warnings above\n", failures)
		os.Exit(1)
	}
}

// scanAll analyzes every expired, active and pending battle, in that order.
// A failing battle is reported to stderr and skipped, matching how the
// engine treats per-battle failures.
func scanAll(ctx context.Context, reg *registry.Client, analyzer *battle.Analyzer) ([]*battle.Analysis, int) {
	var (
		analyses []*battle.Analysis
		failures int
	)

	seen := make(map[uint64]bool)
	for _, status := range []domain.BattleStatus{
		domain.BattleStatusExpired,
		domain.BattleStatusActive,
		domain.BattleStatusPending,
	} {
		ids, err := reg.BattleIDsByStatus(ctx, status)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: listing %s battles: %v\n", status, err)
			failures++
			continue
		}
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true

			analysis, err := analyzer.Analyze(ctx, id)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: battle %d: %v\n", id, err)
				failures++
				continue
			}
			analyses = append(analyses, analysis)
		}
	}
	return analyses, failures
}

// renderDetail prints one battle as a field/value table.
func renderDetail(a *battle.Analysis) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Battle %d", a.BattleID))

	t.AppendRow(table.Row{"Type", a.Type.String()})
	t.AppendRow(table.Row{"Status", a.Status.String()})
	if a.Winner != "" {
		t.AppendRow(table.Row{"Winner", a.Winner})
	}
	t.AppendRow(table.Row{"Time remaining", a.TimeRemaining.Round(time.Second)})
	t.AppendRow(table.Row{"Creator score", scoreString(a.Performance, a.CreatorProjected, true)})
	t.AppendRow(table.Row{"Opponent score", scoreString(a.Performance, a.OpponentProjected, false)})
	if a.Leader != "" {
		t.AppendRow(table.Row{"Leader", a.Leader})
	}
	if a.EntryScore > 0 {
		t.AppendRow(table.Row{"Entry score", a.EntryScore})
	}

	if a.Pool != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Pool tick", a.Pool.Tick})
		t.AppendRow(table.Row{"Pool liquidity", a.Pool.Liquidity})
		t.AppendRow(table.Row{"Creator position", placementString(a.CreatorPlacement)})
		t.AppendRow(table.Row{"Opponent position", placementString(a.OpponentPlacement)})
	}

	t.AppendSeparator()
	t.AppendRow(table.Row{"Recommendation", a.Recommendation})
	t.Render()
}

// renderSummary prints one row per battle.
func renderSummary(analyses []*battle.Analysis) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Type", "Status", "Time Left", "Creator", "Opponent", "Leader", "Entry", "Recommendation"})

	for _, a := range analyses {
		t.AppendRow(table.Row{
			a.BattleID,
			a.Type.String(),
			a.Status.String(),
			a.TimeRemaining.Round(time.Second),
			scoreString(a.Performance, a.CreatorProjected, true),
			scoreString(a.Performance, a.OpponentProjected, false),
			a.Leader,
			a.EntryScore,
			a.Recommendation,
		})
	}
	t.Render()
}

// scoreString prefers the arena's live tuple over the local projection,
// mirroring what the daemon persists.
func scoreString(perf *domain.Performance, projected *big.Int, creator bool) string {
	if perf != nil {
		if creator {
			return perf.CreatorScore.String()
		}
		return perf.OpponentScore.String()
	}
	if projected != nil {
		return projected.String() + " (projected)"
	}
	return "-"
}

// placementString summarizes one side's range against the live tick.
func placementString(s *position.Status) string {
	if s == nil {
		return "-"
	}
	state := "out of range"
	if s.InRange {
		state = "in range"
	}
	return fmt.Sprintf("%s (width %d ticks, at %.0f%%)", state, s.Width, s.Normalized*100)
}
