package domain

import "time"

// ActionKind is what the engine decided to do about one battle.
type ActionKind string

const (
	ActionResolve         ActionKind = "resolve"           // on-chain: settle an expired battle
	ActionUpdateStatus    ActionKind = "update_status"     // on-chain: refresh accrued counters
	ActionAnalyze         ActionKind = "analyze"           // advisory: record analysis only
	ActionCrossChainEntry ActionKind = "cross_chain_entry" // advisory: plan an entry route
)

// Fixed priority tiers. Priority is assigned once at decision time and never
// changes afterwards.
const (
	PriorityResolve      = 100
	PriorityUpdateStatus = 50
	PriorityAnalyze      = 30
)

// AgentAction is one decided unit of work for a cycle.
type AgentAction struct {
	Kind     ActionKind
	BattleID uint64
	Priority int
	Reason   string // short human-readable justification
}

// ActionStatus is the outcome of executing one action.
type ActionStatus string

const (
	ActionStatusDone    ActionStatus = "done"
	ActionStatusFailed  ActionStatus = "failed"
	ActionStatusSkipped ActionStatus = "skipped"
)

// ActionRecord is the persisted outcome of one executed action.
// Corresponds to the action_log table in PostgreSQL.
type ActionRecord struct {
	ID         int64        // assigned by the store
	Cycle      uint64       // engine cycle the action ran in
	BattleID   uint64
	Kind       ActionKind
	Priority   int
	Status     ActionStatus
	TxHash     string       // empty for advisory actions
	Detail     string       // error text or advisory note
	ExecutedAt time.Time
}

// BattleArchive is the persisted summary of a resolved battle.
// Corresponds to the battle_archive table in PostgreSQL.
type BattleArchive struct {
	BattleID      uint64
	BattleType    BattleType
	Creator       string // hex address
	Opponent      string // hex address
	Winner        string // hex address
	CreatorScore  string // 1e18 fixed-point, decimal string
	OpponentScore string // 1e18 fixed-point, decimal string
	ResolveTx     string
	ResolvedAt    time.Time
}
