// Package main provides the unified agent daemon that runs all components together:
// - Engine (continuous): monitor → decide → act cycles against the arena
// - HTTP facade: health, metrics, status, snapshot, on-demand analysis, route planning
// - WebSocket push: one snapshot frame per completed cycle
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"lp-arena-agent/internal/aggregator"
	"lp-arena-agent/internal/api"
	"lp-arena-agent/internal/battle"
	"lp-arena-agent/internal/config"
	"lp-arena-agent/internal/engine"
	"lp-arena-agent/internal/evm"
	"lp-arena-agent/internal/logger"
	"lp-arena-agent/internal/observability"
	"lp-arena-agent/internal/poolstate"
	"lp-arena-agent/internal/registry"
	"lp-arena-agent/internal/routing"
	"lp-arena-agent/internal/storage"
	chstore "lp-arena-agent/internal/storage/clickhouse"
	"lp-arena-agent/internal/storage/memory"
	"lp-arena-agent/internal/storage/migrations"
	pgstore "lp-arena-agent/internal/storage/postgres"
)

// allStores holds all storage implementations.
type allStores struct {
	actionStore  storage.ActionStore
	archiveStore storage.BattleArchiveStore
	historyStore storage.HistoryStore
}

func main() {
	// Load .env file if exists
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Init(config.LoggerOptions())
	defer logger.Sync()
	log := logger.S()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("ARBITRUM_RPC_ENDPOINT"), "Arbitrum RPC HTTP endpoint")
	arenaAddr := flag.String("arena", os.Getenv("ARENA_ADDRESS"), "Arena contract address")
	leaderboardAddr := flag.String("leaderboard", os.Getenv("LEADERBOARD_ADDRESS"), "Leaderboard contract address (optional)")
	poolManagerAddr := flag.String("pool-manager", os.Getenv("POOL_MANAGER_ADDRESS"), "Pool manager contract address for storage reads (optional)")
	privateKey := flag.String("private-key", os.Getenv("AGENT_PRIVATE_KEY"), "Agent private key; omit for read-only mode")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", config.GetBool("USE_MEMORY", false), "Use in-memory storage instead of PostgreSQL/ClickHouse")
	aggregatorURL := flag.String("aggregator-url", os.Getenv("AGGREGATOR_URL"), "Route aggregator API base URL (optional)")
	listenAddr := flag.String("listen", config.GetString("LISTEN_ADDR", ":8080"), "HTTP listen address")
	interval := flag.Duration("interval", config.GetDuration("CYCLE_INTERVAL", engine.DefaultInterval), "Strategy cycle interval")
	entryThreshold := flag.Int("entry-threshold", config.GetInt("ENTRY_THRESHOLD", engine.DefaultEntryThreshold), "Minimum entry score before planning a cross-chain entry")
	entrySourceChain := flag.Uint64("entry-source-chain", uint64(config.GetInt("ENTRY_SOURCE_CHAIN", 0)), "Chain id holding the agent's USDC; enables entry planning")
	entryAmount := flag.String("entry-amount", os.Getenv("ENTRY_AMOUNT"), "USDC base units to commit per entry")
	entrySender := flag.String("entry-sender", os.Getenv("ENTRY_SENDER"), "Address funding cross-chain entries")
	once := flag.Bool("once", false, "Run a single cycle, print the snapshot, exit")

	flag.Parse()

	// Validate required flags
	if *rpcEndpoint == "" {
		log.Fatal("--rpc-endpoint is required")
	}
	if !common.IsHexAddress(*arenaAddr) {
		log.Fatal("--arena must be a valid contract address")
	}
	if *leaderboardAddr != "" && !common.IsHexAddress(*leaderboardAddr) {
		log.Fatal("--leaderboard must be a valid contract address")
	}
	if *poolManagerAddr != "" && !common.IsHexAddress(*poolManagerAddr) {
		log.Fatal("--pool-manager must be a valid contract address")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		log.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		log.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Connect to the chain
	client, err := evm.Dial(ctx, *rpcEndpoint)
	if err != nil {
		log.Fatalf("Failed to connect to RPC: %v", err)
	}
	defer client.Close()
	log.Infow("connected to chain", "endpoint", *rpcEndpoint, "chain_id", client.ChainID())

	arena := common.HexToAddress(*arenaAddr)
	var leaderboard common.Address
	if *leaderboardAddr != "" {
		leaderboard = common.HexToAddress(*leaderboardAddr)
	}
	reg := registry.NewClient(client, arena, leaderboard)

	// Write side is optional; without a key the engine records write actions
	// as skipped instead of sending transactions.
	var writer registry.BattleWriter
	if *privateKey != "" {
		signer, err := evm.NewSigner(*privateKey)
		if err != nil {
			log.Fatalf("Failed to parse private key: %v", err)
		}
		writer = registry.NewWriter(client, signer, arena)
		log.Infow("write mode enabled", "account", signer.Address().Hex())
	} else {
		log.Infow("no private key configured, running read-only")
	}

	// Pool state reads are optional; without a manager address analyses skip
	// position placement.
	var pools battle.PoolReader
	if *poolManagerAddr != "" {
		pools = poolstate.NewReader(client, common.HexToAddress(*poolManagerAddr))
	}

	// Routing: the native bridge family always works, the aggregator family
	// needs a configured API host.
	var quotes routing.QuoteProvider
	if *aggregatorURL != "" {
		agg, err := aggregator.NewClient(*aggregatorURL)
		if err != nil {
			log.Fatalf("Failed to create aggregator client: %v", err)
		}
		quotes = agg
	}
	selector := routing.NewSelector(routing.SelectorOptions{Quotes: quotes})
	planner := routing.NewPlanner(routing.PlannerOptions{ArenaAddress: arena})

	entry, err := buildEntryConfig(*entrySourceChain, *entryAmount, *entrySender)
	if err != nil {
		log.Fatalf("Invalid entry configuration: %v", err)
	}

	eng, err := engine.New(engine.Options{
		Reader:         reg,
		Writer:         writer,
		Pools:          pools,
		Selector:       selector,
		Planner:        planner,
		Entry:          entry,
		Actions:        stores.actionStore,
		Archive:        stores.archiveStore,
		History:        stores.historyStore,
		Metrics:        observability.DefaultMetrics,
		Interval:       *interval,
		EntryThreshold: *entryThreshold,
	})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	// One-shot mode: a single cycle, the snapshot on stdout, done.
	if *once {
		out, err := api.MarshalSnapshot(eng.RunOnce(ctx))
		if err != nil {
			log.Fatalf("Failed to render snapshot: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	var leaderboardReader registry.LeaderboardReader
	if leaderboard != (common.Address{}) {
		leaderboardReader = reg
	}
	srv, err := api.NewServer(api.Options{
		Engine:      eng,
		Analyzer:    eng.Analyzer(),
		Leaderboard: leaderboardReader,
		Selector:    selector,
		Planner:     planner,
	})
	if err != nil {
		log.Fatalf("Failed to create API server: %v", err)
	}
	srv.Start(ctx)

	httpSrv := &http.Server{
		Addr:              *listenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("http server listening", "addr", *listenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("http server failed", "err", err)
		}
	}()

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	// Handle shutdown signals
	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Infow("shutdown signal received, finishing in-flight cycle", "signal", sig.String())
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			log.Errorw("second signal received, forcing immediate shutdown", "signal", sig.String())
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Errorw("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	<-ctx.Done()

	eng.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http shutdown", "err", err)
	}

	close(done)
	log.Infow("shutdown complete")
}

// buildEntryConfig validates the entry planning flags as a group. A zero
// source chain disables entry planning entirely.
func buildEntryConfig(sourceChain uint64, amount, sender string) (*engine.EntryConfig, error) {
	if sourceChain == 0 {
		return nil, nil
	}
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok || value.Sign() <= 0 {
		return nil, fmt.Errorf("--entry-amount must be a positive integer in USDC base units, got %q", amount)
	}
	if !common.IsHexAddress(sender) {
		return nil, fmt.Errorf("--entry-sender must be a valid address, got %q", sender)
	}
	return &engine.EntryConfig{
		SourceChain: sourceChain,
		Amount:      value,
		Sender:      common.HexToAddress(sender),
	}, nil
}

// createStores creates all required stores, running migrations first.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			actionStore:  memory.NewActionStore(),
			archiveStore: memory.NewBattleArchiveStore(),
			historyStore: memory.NewHistoryStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL: executed actions and archived battles
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	// ClickHouse: per-cycle analysis history
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	stores := &allStores{
		actionStore:  pgstore.NewActionStore(pool),
		archiveStore: pgstore.NewBattleArchiveStore(pool),
		historyStore: chstore.NewHistoryStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}
