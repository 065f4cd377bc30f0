// Package api is the HTTP/WS facade over a running agent. It reads engine
// snapshots, runs ad hoc analyses, and plans routes; it never mutates engine
// state beyond what the engine already does on its own.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lp-arena-agent/internal/battle"
	"lp-arena-agent/internal/engine"
	"lp-arena-agent/internal/logger"
	"lp-arena-agent/internal/observability"
	"lp-arena-agent/internal/registry"
	"lp-arena-agent/internal/routing"
)

// Options wires the facade. Engine and Analyzer are required; everything
// else degrades the matching endpoint when absent.
type Options struct {
	Engine      *engine.Engine
	Analyzer    *battle.Analyzer
	Leaderboard registry.LeaderboardReader
	Selector    *routing.Selector
	Planner     *routing.Planner

	HubConfig *HubConfig
	Logger    *zap.SugaredLogger
}

// Server serves the agent's HTTP surface.
type Server struct {
	engine      *engine.Engine
	analyzer    *battle.Analyzer
	leaderboard registry.LeaderboardReader
	selector    *routing.Selector
	planner     *routing.Planner
	hub         *Hub
	log         *zap.SugaredLogger
	started     time.Time
}

// NewServer builds the facade.
func NewServer(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("api: Engine is required")
	}
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("api: Analyzer is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.S()
	}

	return &Server{
		engine:      opts.Engine,
		analyzer:    opts.Analyzer,
		leaderboard: opts.Leaderboard,
		selector:    opts.Selector,
		planner:     opts.Planner,
		hub:         NewHub(opts.Engine, opts.HubConfig, log),
		log:         log,
		started:     time.Now(),
	}, nil
}

// Start runs the websocket hub until ctx is done.
func (s *Server) Start(ctx context.Context) {
	go s.hub.Run(ctx)
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /battles/{id}/analysis", s.handleBattleAnalysis)
	mux.HandleFunc("GET /leaderboard/{address}", s.handleLeaderboard)
	mux.HandleFunc("POST /routes/plan", s.handleRoutePlan)
	mux.HandleFunc("GET /ws", s.hub.ServeWS)

	return mux
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status            string    `json:"status"`
	Uptime            string    `json:"uptime"`
	Cycle             uint64    `json:"cycle"`
	LastCycleStarted  time.Time `json:"last_cycle_started,omitempty"`
	LastCycleFinished time.Time `json:"last_cycle_finished,omitempty"`
	LastCycleDuration string    `json:"last_cycle_duration,omitempty"`
	LastCycleErrors   int       `json:"last_cycle_errors"`
	ExpiredBattles    int       `json:"expired_battles"`
	ActiveBattles     int       `json:"active_battles"`
	PendingBattles    int       `json:"pending_battles"`
	Subscribers       int       `json:"subscribers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()

	resp := StatusResponse{
		Status:          s.engine.State().String(),
		Uptime:          time.Since(s.started).Round(time.Second).String(),
		Cycle:           snap.Cycle,
		LastCycleErrors: len(snap.Errors),
		ExpiredBattles:  len(snap.ExpiredIDs),
		ActiveBattles:   len(snap.ActiveIDs),
		PendingBattles:  len(snap.PendingIDs),
		Subscribers:     s.hub.clientCount(),
	}
	if snap.Cycle > 0 {
		resp.LastCycleStarted = snap.StartedAt
		resp.LastCycleFinished = snap.FinishedAt
		resp.LastCycleDuration = snap.FinishedAt.Sub(snap.StartedAt).String()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSnapshotResponse(s.engine.Snapshot()))
}

func (s *Server) handleBattleAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "battle id must be a positive integer")
		return
	}

	analysis, err := s.analyzer.Analyze(r.Context(), id)
	if err != nil {
		s.log.Warnw("on-demand analysis failed", "battle", id, "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toAnalysisResponse(*analysis))
}

// LeaderboardResponse is one player's standings.
type LeaderboardResponse struct {
	Address          string  `json:"address"`
	ELO              uint64  `json:"elo"`
	Wins             uint64  `json:"wins"`
	Losses           uint64  `json:"losses"`
	TotalBattles     uint64  `json:"total_battles"`
	WinRate          float64 `json:"win_rate"`
	TotalValueWonUSD float64 `json:"total_value_won_usd"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.leaderboard == nil {
		writeError(w, http.StatusServiceUnavailable, "leaderboard reader not configured")
		return
	}

	addr := r.PathValue("address")
	if !common.IsHexAddress(addr) {
		writeError(w, http.StatusBadRequest, "not a valid address")
		return
	}

	stats, err := s.leaderboard.PlayerStats(r.Context(), common.HexToAddress(addr))
	if err != nil {
		s.log.Warnw("leaderboard read failed", "player", addr, "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, LeaderboardResponse{
		Address:          stats.Address,
		ELO:              stats.ELO,
		Wins:             stats.Wins,
		Losses:           stats.Losses,
		TotalBattles:     stats.TotalBattles,
		WinRate:          stats.WinRate(),
		TotalValueWonUSD: float64(stats.TotalValueWon) / 1e8,
	})
}

// RoutePlanRequest is the body for POST /routes/plan.
type RoutePlanRequest struct {
	SourceChain uint64 `json:"source_chain"`
	Amount      string `json:"amount"` // USDC base units, decimal string
	Sender      string `json:"sender"`
	BattleID    uint64 `json:"battle_id,omitempty"`
	TickLower   int32  `json:"tick_lower,omitempty"`
	TickUpper   int32  `json:"tick_upper,omitempty"`
}

// RoutePlanResponse is validation plus the selected routes and plan.
type RoutePlanResponse struct {
	IntentID   string                `json:"intent_id"`
	Valid      bool                  `json:"valid"`
	Issues     []string              `json:"issues,omitempty"`
	Advisories []string              `json:"advisories,omitempty"`
	Options    []RouteOptionResponse `json:"options,omitempty"`
	Plan       *PlanResponse         `json:"plan,omitempty"`
}

func (s *Server) handleRoutePlan(w http.ResponseWriter, r *http.Request) {
	if s.selector == nil || s.planner == nil {
		writeError(w, http.StatusServiceUnavailable, "routing not configured")
		return
	}

	var req RoutePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if !common.IsHexAddress(req.Sender) {
		writeError(w, http.StatusBadRequest, "sender is not a valid address")
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		writeError(w, http.StatusBadRequest, "amount is not a decimal integer")
		return
	}

	intent := routing.NewIntent(req.SourceChain, amount, common.HexToAddress(req.Sender))
	intent.BattleID = req.BattleID
	intent.TickLower = req.TickLower
	intent.TickUpper = req.TickUpper

	result, err := s.selector.SelectRoutes(r.Context(), intent)
	if err != nil {
		s.log.Warnw("route selection failed", "intent", intent.ID, "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := RoutePlanResponse{
		IntentID:   intent.ID,
		Valid:      result.Validation.Valid,
		Issues:     result.Validation.Issues,
		Advisories: result.Validation.Advisories,
	}
	for _, o := range result.Options {
		resp.Options = append(resp.Options, toRouteOptionResponse(o))
	}

	if result.Validation.Valid && len(result.Options) > 0 {
		plan, err := s.planner.BuildPlan(intent, result.Options[0], nil)
		if err != nil {
			s.log.Warnw("plan build failed", "intent", intent.ID, "err", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		p := toPlanResponse(*plan)
		resp.Plan = &p
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
