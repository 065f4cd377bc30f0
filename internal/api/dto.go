package api

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"time"

	"lp-arena-agent/internal/battle"
	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/engine"
	"lp-arena-agent/internal/position"
)

// PlacementResponse is one position measured against the live pool.
type PlacementResponse struct {
	InRange    bool    `json:"in_range"`
	Normalized float64 `json:"normalized"`
	WidthTicks int32   `json:"width_ticks"`
}

func toPlacementResponse(s *position.Status) *PlacementResponse {
	if s == nil {
		return nil
	}
	return &PlacementResponse{
		InRange:    s.InRange,
		Normalized: s.Normalized,
		WidthTicks: s.Width,
	}
}

// AnalysisResponse is one battle assessment.
type AnalysisResponse struct {
	BattleID         uint64             `json:"battle_id"`
	Type             string             `json:"type"`
	Status           string             `json:"status"`
	Winner           string             `json:"winner,omitempty"`
	TimeRemainingSec int64              `json:"time_remaining_sec"`
	CreatorScore     string             `json:"creator_score,omitempty"`
	OpponentScore    string             `json:"opponent_score,omitempty"`
	Leader           string             `json:"leader,omitempty"`
	PoolTick         *int32             `json:"pool_tick,omitempty"`
	CreatorPosition  *PlacementResponse `json:"creator_position,omitempty"`
	OpponentPosition *PlacementResponse `json:"opponent_position,omitempty"`
	EntryScore       int                `json:"entry_score"`
	Recommendation   string             `json:"recommendation"`
	AnalyzedAt       time.Time          `json:"analyzed_at"`
}

func toAnalysisResponse(a battle.Analysis) AnalysisResponse {
	resp := AnalysisResponse{
		BattleID:         a.BattleID,
		Type:             a.Type.String(),
		Status:           a.Status.String(),
		Winner:           a.Winner,
		TimeRemainingSec: int64(a.TimeRemaining / time.Second),
		Leader:           a.Leader,
		CreatorPosition:  toPlacementResponse(a.CreatorPlacement),
		OpponentPosition: toPlacementResponse(a.OpponentPlacement),
		EntryScore:       a.EntryScore,
		Recommendation:   a.Recommendation,
		AnalyzedAt:       a.AnalyzedAt,
	}

	if a.Pool != nil {
		tick := a.Pool.Tick
		resp.PoolTick = &tick
	}

	// Prefer the arena's live tuple over local projections, like the
	// history records do.
	if a.Performance != nil {
		resp.CreatorScore = bigString(a.Performance.CreatorScore)
		resp.OpponentScore = bigString(a.Performance.OpponentScore)
	} else {
		resp.CreatorScore = bigString(a.CreatorProjected)
		resp.OpponentScore = bigString(a.OpponentProjected)
	}
	return resp
}

// StepResponse is one leg of a route or plan.
type StepResponse struct {
	Kind        string `json:"kind"`
	ChainID     uint64 `json:"chain_id"`
	Description string `json:"description"`
	To          string `json:"to,omitempty"`
	Calldata    string `json:"calldata,omitempty"`
	TxRequired  bool   `json:"tx_required"`
}

func toStepResponses(steps []domain.Step) []StepResponse {
	out := make([]StepResponse, 0, len(steps))
	for _, s := range steps {
		resp := StepResponse{
			Kind:        string(s.Kind),
			ChainID:     s.ChainID,
			Description: s.Description,
			TxRequired:  s.TxRequired,
		}
		if s.TxRequired {
			resp.To = s.To.Hex()
		}
		if len(s.Calldata) > 0 {
			resp.Calldata = "0x" + hex.EncodeToString(s.Calldata)
		}
		out = append(out, resp)
	}
	return out
}

// RouteOptionResponse is one candidate route.
type RouteOptionResponse struct {
	ID          string         `json:"id"`
	Provider    string         `json:"provider"`
	Tool        string         `json:"tool"`
	Recommended bool           `json:"recommended"`
	AmountOut   string         `json:"amount_out"`
	FeesUSD     string         `json:"fees_usd"`
	DurationSec int64          `json:"duration_sec"`
	Steps       []StepResponse `json:"steps"`
}

func toRouteOptionResponse(o domain.RouteOption) RouteOptionResponse {
	return RouteOptionResponse{
		ID:          o.ID,
		Provider:    o.Provider,
		Tool:        o.Tool,
		Recommended: o.Recommended,
		AmountOut:   bigString(o.AmountOut),
		FeesUSD:     o.FeesUSD.String(),
		DurationSec: o.DurationSec,
		Steps:       toStepResponses(o.Steps),
	}
}

// PlanResponse is an execution plan.
type PlanResponse struct {
	PlanID      string         `json:"plan_id"`
	IntentID    string         `json:"intent_id"`
	RouteID     string         `json:"route_id"`
	Provider    string         `json:"provider"`
	GasMillions float64        `json:"gas_millions"`
	Steps       []StepResponse `json:"steps"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toPlanResponse(p domain.ExecutionPlan) PlanResponse {
	return PlanResponse{
		PlanID:      p.PlanID,
		IntentID:    p.IntentID,
		RouteID:     p.RouteID,
		Provider:    p.Provider,
		GasMillions: p.GasMillions,
		Steps:       toStepResponses(p.Steps),
		CreatedAt:   p.CreatedAt,
	}
}

// ActionResponse is one decided action.
type ActionResponse struct {
	Kind     string `json:"kind"`
	BattleID uint64 `json:"battle_id"`
	Priority int    `json:"priority"`
	Reason   string `json:"reason"`
}

// ResultResponse is the outcome of one executed action.
type ResultResponse struct {
	BattleID   uint64    `json:"battle_id"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	TxHash     string    `json:"tx_hash,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	ExecutedAt time.Time `json:"executed_at"`
}

// SnapshotResponse is one completed engine cycle.
type SnapshotResponse struct {
	Cycle      uint64             `json:"cycle"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	ExpiredIDs []uint64           `json:"expired_ids"`
	ActiveIDs  []uint64           `json:"active_ids"`
	PendingIDs []uint64           `json:"pending_ids"`
	Analyses   []AnalysisResponse `json:"analyses"`
	Actions    []ActionResponse   `json:"actions"`
	Results    []ResultResponse   `json:"results"`
	Plans      []PlanResponse     `json:"plans,omitempty"`
	Errors     []string           `json:"errors,omitempty"`
}

func toSnapshotResponse(s engine.Snapshot) SnapshotResponse {
	resp := SnapshotResponse{
		Cycle:      s.Cycle,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		ExpiredIDs: s.ExpiredIDs,
		ActiveIDs:  s.ActiveIDs,
		PendingIDs: s.PendingIDs,
		Errors:     s.Errors,
	}

	resp.Analyses = make([]AnalysisResponse, 0, len(s.Analyses))
	for _, a := range s.Analyses {
		resp.Analyses = append(resp.Analyses, toAnalysisResponse(a))
	}

	resp.Actions = make([]ActionResponse, 0, len(s.Actions))
	for _, a := range s.Actions {
		resp.Actions = append(resp.Actions, ActionResponse{
			Kind:     string(a.Kind),
			BattleID: a.BattleID,
			Priority: a.Priority,
			Reason:   a.Reason,
		})
	}

	resp.Results = make([]ResultResponse, 0, len(s.Results))
	for _, r := range s.Results {
		resp.Results = append(resp.Results, ResultResponse{
			BattleID:   r.BattleID,
			Kind:       string(r.Kind),
			Status:     string(r.Status),
			TxHash:     r.TxHash,
			Detail:     r.Detail,
			ExecutedAt: r.ExecutedAt,
		})
	}

	for _, p := range s.Plans {
		resp.Plans = append(resp.Plans, toPlanResponse(p))
	}

	return resp
}

func marshalSnapshot(s engine.Snapshot) ([]byte, error) {
	return json.Marshal(toSnapshotResponse(s))
}

// MarshalSnapshot renders a snapshot as indented JSON, shaped exactly like
// the /snapshot endpoint. One-shot runs print this to stdout.
func MarshalSnapshot(s engine.Snapshot) ([]byte, error) {
	return json.MarshalIndent(toSnapshotResponse(s), "", "  ")
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
