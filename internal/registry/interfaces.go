// Package registry talks to the arena and leaderboard contracts. Consumers
// depend on the interfaces here; tests swap in fakes.
package registry

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"lp-arena-agent/internal/domain"
)

// BattleReader is the read side of the arena contract.
type BattleReader interface {
	// Battle fetches a battle record and returns the typed form picked by
	// the on-chain discriminant (*domain.RangeBattle or *domain.FeeBattle).
	Battle(ctx context.Context, id uint64) (domain.Battle, error)

	// BattleIDsByStatus lists battle ids currently in the given status.
	BattleIDsByStatus(ctx context.Context, status domain.BattleStatus) ([]uint64, error)

	// BattleCount returns how many battles the arena has ever created.
	BattleCount(ctx context.Context) (uint64, error)

	// IsExpired reports whether the battle's clock has run out.
	IsExpired(ctx context.Context, id uint64) (bool, error)

	// TimeRemaining returns how long until the battle's clock runs out.
	TimeRemaining(ctx context.Context, id uint64) (time.Duration, error)

	// CurrentPerformance fetches the live score tuple for a running battle.
	CurrentPerformance(ctx context.Context, id uint64) (*domain.Performance, error)
}

// BattleWriter is the write side of the arena contract. Every write
// simulates first, then submits and waits for inclusion.
type BattleWriter interface {
	ResolveBattle(ctx context.Context, id uint64) (txHash string, err error)
	UpdateBattleStatus(ctx context.Context, id uint64) (txHash string, err error)
}

// LeaderboardReader reads player standings.
type LeaderboardReader interface {
	PlayerStats(ctx context.Context, player common.Address) (*domain.PlayerStats, error)
	PlayerCount(ctx context.Context) (uint64, error)
}
