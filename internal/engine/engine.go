// Package engine runs the agent's monitor, decide, act loop on a fixed
// interval. One cycle is three strictly ordered phases; a stop request is
// honored only once the in-flight cycle has finished.
package engine

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lp-arena-agent/internal/battle"
	"lp-arena-agent/internal/logger"
	"lp-arena-agent/internal/observability"
	"lp-arena-agent/internal/registry"
	"lp-arena-agent/internal/routing"
	"lp-arena-agent/internal/storage"
)

// State is the engine's lifecycle state. There is no paused state.
type State int32

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

const (
	// DefaultInterval is the cycle period.
	DefaultInterval = 30 * time.Second

	// DefaultEntryThreshold is the minimum entry score before the engine
	// plans a cross-chain entry into an open battle.
	DefaultEntryThreshold = 70
)

// EntryConfig pre-authorizes advisory entry planning. When set together
// with a selector and planner, open battles scoring at or above the entry
// threshold get a cross_chain_entry action.
type EntryConfig struct {
	SourceChain uint64
	Amount      *big.Int // USDC base units to commit
	Sender      common.Address
}

// Options for creating an Engine.
type Options struct {
	// Required reader for battle discovery and analysis.
	Reader registry.BattleReader

	// Writer for resolve/update transactions. Nil runs the engine
	// read-only: write actions are recorded as skipped.
	Writer registry.BattleWriter

	// Pools enriches RANGE battle analyses with live pool state and
	// position placement. Optional.
	Pools battle.PoolReader

	// Route planning surface, all optional.
	Selector *routing.Selector
	Planner  *routing.Planner
	Entry    *EntryConfig

	// Stores, all optional.
	Actions storage.ActionStore
	Archive storage.BattleArchiveStore
	History storage.HistoryStore

	Metrics *observability.Metrics
	Logger  *zap.SugaredLogger

	Interval       time.Duration // defaults to DefaultInterval
	EntryThreshold int           // defaults to DefaultEntryThreshold
}

// Engine is the strategy scheduler.
type Engine struct {
	reader   registry.BattleReader
	writer   registry.BattleWriter
	analyzer *battle.Analyzer

	selector *routing.Selector
	planner  *routing.Planner
	entry    *EntryConfig

	actions storage.ActionStore
	archive storage.BattleArchiveStore
	history storage.HistoryStore

	metrics *observability.Metrics
	log     *zap.SugaredLogger

	interval       time.Duration
	entryThreshold int

	mu       sync.Mutex
	state    State
	stopping bool
	stop     chan struct{}
	done     chan struct{}
	cycleSeq uint64

	// cycleMu serializes cycles so RunOnce cannot overlap the loop.
	cycleMu sync.Mutex

	snapMu   sync.RWMutex
	snapshot Snapshot
}

// New creates a new Engine.
func New(opts Options) (*Engine, error) {
	if opts.Reader == nil {
		return nil, fmt.Errorf("engine: battle reader is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.EntryThreshold <= 0 {
		opts.EntryThreshold = DefaultEntryThreshold
	}
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}

	analyzer := battle.NewAnalyzer(opts.Reader)
	if opts.Pools != nil {
		analyzer = analyzer.WithPools(opts.Pools)
	}

	return &Engine{
		reader:         opts.Reader,
		writer:         opts.Writer,
		analyzer:       analyzer,
		selector:       opts.Selector,
		planner:        opts.Planner,
		entry:          opts.Entry,
		actions:        opts.Actions,
		archive:        opts.Archive,
		history:        opts.History,
		metrics:        opts.Metrics,
		log:            opts.Logger,
		interval:       opts.Interval,
		entryThreshold: opts.EntryThreshold,
		state:          StateStopped,
	}, nil
}

// State returns the engine's lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Analyzer exposes the engine's battle analyzer for on-demand use.
func (e *Engine) Analyzer() *battle.Analyzer {
	return e.analyzer
}

// Start launches the loop: an immediate first cycle, then one per interval.
// It returns an error if the engine is already running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return fmt.Errorf("engine already running")
	}
	e.state = StateRunning
	e.stopping = false
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.EngineRunning.Set(1)
	}
	e.log.Infow("engine started", "interval", e.interval)

	go e.loop(ctx)
	return nil
}

// Stop requests a stop and blocks until the loop has exited. An in-flight
// cycle always completes first. Stopping a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return
	}
	if !e.stopping {
		e.stopping = true
		close(e.stop)
	}
	done := e.done
	e.mu.Unlock()

	<-done
}

// RunOnce executes a single cycle synchronously and returns its snapshot.
// Safe to call alongside the loop; cycles never overlap.
func (e *Engine) RunOnce(ctx context.Context) Snapshot {
	e.runCycle(ctx)
	return e.Snapshot()
}

func (e *Engine) loop(ctx context.Context) {
	defer func() {
		e.mu.Lock()
		e.state = StateStopped
		close(e.done)
		e.mu.Unlock()

		if e.metrics != nil {
			e.metrics.EngineRunning.Set(0)
		}
		e.log.Infow("engine stopped")
	}()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stop:
			return
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}
