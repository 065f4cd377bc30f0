package registry

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"lp-arena-agent/internal/domain"
	"lp-arena-agent/internal/evm"
)

// Client reads the arena and leaderboard contracts over one EVM connection.
type Client struct {
	arena       *bind.BoundContract
	leaderboard *bind.BoundContract
	callTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCallTimeout overrides the per-call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// NewClient binds the arena and leaderboard contracts. The leaderboard
// address may be zero when the deployment has none; leaderboard reads then
// fail with a clear error.
func NewClient(client *evm.Client, arenaAddr, leaderboardAddr common.Address, opts ...Option) *Client {
	backend := client.Raw()
	c := &Client{
		arena:       bind.NewBoundContract(arenaAddr, ArenaABI(), backend, backend, backend),
		callTimeout: evm.DefaultCallTimeout,
	}
	if leaderboardAddr != (common.Address{}) {
		c.leaderboard = bind.NewBoundContract(leaderboardAddr, LeaderboardABI(), backend, backend, backend)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ BattleReader = (*Client)(nil)
var _ LeaderboardReader = (*Client)(nil)

// call runs one view method under the per-call timeout.
func (c *Client) call(ctx context.Context, contract *bind.BoundContract, out *[]interface{}, method string, args ...interface{}) error {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	if err := contract.Call(&bind.CallOpts{Context: callCtx}, out, method, args...); err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	return nil
}

// Battle fetches the shared record, then the format-specific fields picked by
// the type discriminant.
func (c *Client) Battle(ctx context.Context, id uint64) (domain.Battle, error) {
	var out []interface{}
	if err := c.call(ctx, c.arena, &out, "getBattle", new(big.Int).SetUint64(id)); err != nil {
		return nil, err
	}
	if len(out) != 12 {
		return nil, fmt.Errorf("getBattle: unexpected result len %d", len(out))
	}

	core := domain.BattleCore{ID: id}
	var battleType uint8
	var err error
	if battleType, err = asUint8(out[0], "battleType"); err != nil {
		return nil, err
	}
	var status uint8
	if status, err = asUint8(out[1], "status"); err != nil {
		return nil, err
	}
	core.Status = domain.BattleStatus(status)
	if core.Creator, err = asAddress(out[2], "creator"); err != nil {
		return nil, err
	}
	if core.Opponent, err = asAddress(out[3], "opponent"); err != nil {
		return nil, err
	}
	if core.PoolID, err = asHash(out[4], "poolId"); err != nil {
		return nil, err
	}
	if core.DEX, err = asUint8(out[5], "dexId"); err != nil {
		return nil, err
	}
	if core.StartTime, err = asUint64(out[6], "startTime"); err != nil {
		return nil, err
	}
	if core.Duration, err = asUint64(out[7], "duration"); err != nil {
		return nil, err
	}
	if core.TotalStake, err = asUint64(out[8], "totalStake"); err != nil {
		return nil, err
	}
	if core.CreatorPosition, err = asUint64(out[9], "creatorPositionId"); err != nil {
		return nil, err
	}
	if core.OpponentPosition, err = asUint64(out[10], "opponentPositionId"); err != nil {
		return nil, err
	}
	if core.Winner, err = asAddress(out[11], "winner"); err != nil {
		return nil, err
	}

	switch domain.BattleType(battleType) {
	case domain.BattleTypeRange:
		return c.rangeBattle(ctx, id, core)
	case domain.BattleTypeFee:
		return c.feeBattle(ctx, id, core)
	default:
		return nil, fmt.Errorf("battle %d: unknown battle type %d", id, battleType)
	}
}

func (c *Client) rangeBattle(ctx context.Context, id uint64, core domain.BattleCore) (*domain.RangeBattle, error) {
	var out []interface{}
	if err := c.call(ctx, c.arena, &out, "getRangeBattle", new(big.Int).SetUint64(id)); err != nil {
		return nil, err
	}
	if len(out) != 6 {
		return nil, fmt.Errorf("getRangeBattle: unexpected result len %d", len(out))
	}

	b := &domain.RangeBattle{BattleCore: core}
	var err error
	if b.CreatorTickLower, err = asInt32(out[0], "creatorTickLower"); err != nil {
		return nil, err
	}
	if b.CreatorTickUpper, err = asInt32(out[1], "creatorTickUpper"); err != nil {
		return nil, err
	}
	if b.OpponentTickLower, err = asInt32(out[2], "opponentTickLower"); err != nil {
		return nil, err
	}
	if b.OpponentTickUpper, err = asInt32(out[3], "opponentTickUpper"); err != nil {
		return nil, err
	}
	if b.CreatorInRangeTime, err = asUint64(out[4], "creatorInRangeTime"); err != nil {
		return nil, err
	}
	if b.OpponentInRangeTime, err = asUint64(out[5], "opponentInRangeTime"); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Client) feeBattle(ctx context.Context, id uint64, core domain.BattleCore) (*domain.FeeBattle, error) {
	var out []interface{}
	if err := c.call(ctx, c.arena, &out, "getFeeBattle", new(big.Int).SetUint64(id)); err != nil {
		return nil, err
	}
	if len(out) != 4 {
		return nil, fmt.Errorf("getFeeBattle: unexpected result len %d", len(out))
	}

	b := &domain.FeeBattle{BattleCore: core}
	var err error
	if b.CreatorFeesAccrued, err = asUint64(out[0], "creatorFeesAccrued"); err != nil {
		return nil, err
	}
	if b.OpponentFeesAccrued, err = asUint64(out[1], "opponentFeesAccrued"); err != nil {
		return nil, err
	}
	if b.CreatorLPValue, err = asUint64(out[2], "creatorLpValue"); err != nil {
		return nil, err
	}
	if b.OpponentLPValue, err = asUint64(out[3], "opponentLpValue"); err != nil {
		return nil, err
	}
	return b, nil
}

// BattleIDsByStatus lists ids currently in the given lifecycle state.
func (c *Client) BattleIDsByStatus(ctx context.Context, status domain.BattleStatus) ([]uint64, error) {
	var out []interface{}
	if err := c.call(ctx, c.arena, &out, "getBattleIdsByStatus", uint8(status)); err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("getBattleIdsByStatus: unexpected result len %d", len(out))
	}

	raw, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("getBattleIdsByStatus: unexpected type %T", out[0])
	}

	ids := make([]uint64, 0, len(raw))
	for _, v := range raw {
		ids = append(ids, v.Uint64())
	}
	return ids, nil
}

// BattleCount returns the total number of battles ever created.
func (c *Client) BattleCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := c.call(ctx, c.arena, &out, "getBattleCount"); err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("getBattleCount: unexpected result len %d", len(out))
	}
	return asUint64(out[0], "battleCount")
}

// IsExpired reports whether the battle's clock has run out on chain.
func (c *Client) IsExpired(ctx context.Context, id uint64) (bool, error) {
	var out []interface{}
	if err := c.call(ctx, c.arena, &out, "isBattleExpired", new(big.Int).SetUint64(id)); err != nil {
		return false, err
	}
	if len(out) != 1 {
		return false, fmt.Errorf("isBattleExpired: unexpected result len %d", len(out))
	}
	return asBool(out[0], "expired")
}

// TimeRemaining returns how long until the battle's clock runs out.
func (c *Client) TimeRemaining(ctx context.Context, id uint64) (time.Duration, error) {
	var out []interface{}
	if err := c.call(ctx, c.arena, &out, "getTimeRemaining", new(big.Int).SetUint64(id)); err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("getTimeRemaining: unexpected result len %d", len(out))
	}
	secs, err := asUint64(out[0], "timeRemaining")
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// CurrentPerformance fetches the live score tuple.
func (c *Client) CurrentPerformance(ctx context.Context, id uint64) (*domain.Performance, error) {
	var out []interface{}
	if err := c.call(ctx, c.arena, &out, "getCurrentPerformance", new(big.Int).SetUint64(id)); err != nil {
		return nil, err
	}
	if len(out) != 4 {
		return nil, fmt.Errorf("getCurrentPerformance: unexpected result len %d", len(out))
	}

	perf := &domain.Performance{}
	var err error
	if perf.CreatorScore, err = asBigInt(out[0], "creatorScore"); err != nil {
		return nil, err
	}
	if perf.OpponentScore, err = asBigInt(out[1], "opponentScore"); err != nil {
		return nil, err
	}
	if perf.CreatorInRange, err = asBool(out[2], "creatorInRange"); err != nil {
		return nil, err
	}
	if perf.OpponentInRange, err = asBool(out[3], "opponentInRange"); err != nil {
		return nil, err
	}
	return perf, nil
}

// PlayerStats reads one player's leaderboard entry. Players the leaderboard
// has never seen come back with the default rating and zero counters.
func (c *Client) PlayerStats(ctx context.Context, player common.Address) (*domain.PlayerStats, error) {
	if c.leaderboard == nil {
		return nil, fmt.Errorf("leaderboard contract not configured")
	}

	var out []interface{}
	if err := c.call(ctx, c.leaderboard, &out, "getPlayerStats", player); err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("getPlayerStats: unexpected result len %d", len(out))
	}

	stats := &domain.PlayerStats{Address: player.Hex()}
	var err error
	if stats.ELO, err = asUint64(out[0], "elo"); err != nil {
		return nil, err
	}
	if stats.Wins, err = asUint64(out[1], "wins"); err != nil {
		return nil, err
	}
	if stats.Losses, err = asUint64(out[2], "losses"); err != nil {
		return nil, err
	}
	if stats.TotalBattles, err = asUint64(out[3], "totalBattles"); err != nil {
		return nil, err
	}
	if stats.TotalValueWon, err = asUint64(out[4], "totalValueWon"); err != nil {
		return nil, err
	}
	return stats, nil
}

// PlayerCount returns how many players the leaderboard tracks.
func (c *Client) PlayerCount(ctx context.Context) (uint64, error) {
	if c.leaderboard == nil {
		return 0, fmt.Errorf("leaderboard contract not configured")
	}

	var out []interface{}
	if err := c.call(ctx, c.leaderboard, &out, "getPlayerCount"); err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("getPlayerCount: unexpected result len %d", len(out))
	}
	return asUint64(out[0], "playerCount")
}

// Typed accessors for ABI call results.

func asUint8(v interface{}, field string) (uint8, error) {
	n, ok := v.(uint8)
	if !ok {
		return 0, fmt.Errorf("%s: unexpected type %T", field, v)
	}
	return n, nil
}

func asUint64(v interface{}, field string) (uint64, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return 0, fmt.Errorf("%s: unexpected type %T", field, v)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("%s: value %s overflows uint64", field, n)
	}
	return n.Uint64(), nil
}

func asInt32(v interface{}, field string) (int32, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return 0, fmt.Errorf("%s: unexpected type %T", field, v)
	}
	if !n.IsInt64() || n.Int64() < int64(domain.MinTick) || n.Int64() > int64(domain.MaxTick) {
		return 0, fmt.Errorf("%s: value %s out of tick range", field, n)
	}
	return int32(n.Int64()), nil
}

func asBigInt(v interface{}, field string) (*big.Int, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected type %T", field, v)
	}
	return n, nil
}

func asAddress(v interface{}, field string) (common.Address, error) {
	a, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: unexpected type %T", field, v)
	}
	return a, nil
}

func asHash(v interface{}, field string) (common.Hash, error) {
	h, ok := v.([32]byte)
	if !ok {
		return common.Hash{}, fmt.Errorf("%s: unexpected type %T", field, v)
	}
	return common.BytesToHash(h[:]), nil
}

func asBool(v interface{}, field string) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: unexpected type %T", field, v)
	}
	return b, nil
}
