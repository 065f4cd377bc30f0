package registry

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Arena contract ABI, limited to the methods the agent uses.
const arenaABIJSON = `[
  {"inputs":[{"internalType":"uint256","name":"battleId","type":"uint256"}],"name":"getBattle","outputs":[
    {"internalType":"uint8","name":"battleType","type":"uint8"},
    {"internalType":"uint8","name":"status","type":"uint8"},
    {"internalType":"address","name":"creator","type":"address"},
    {"internalType":"address","name":"opponent","type":"address"},
    {"internalType":"bytes32","name":"poolId","type":"bytes32"},
    {"internalType":"uint8","name":"dexId","type":"uint8"},
    {"internalType":"uint256","name":"startTime","type":"uint256"},
    {"internalType":"uint256","name":"duration","type":"uint256"},
    {"internalType":"uint256","name":"totalStake","type":"uint256"},
    {"internalType":"uint256","name":"creatorPositionId","type":"uint256"},
    {"internalType":"uint256","name":"opponentPositionId","type":"uint256"},
    {"internalType":"address","name":"winner","type":"address"}
  ],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"battleId","type":"uint256"}],"name":"getRangeBattle","outputs":[
    {"internalType":"int24","name":"creatorTickLower","type":"int24"},
    {"internalType":"int24","name":"creatorTickUpper","type":"int24"},
    {"internalType":"int24","name":"opponentTickLower","type":"int24"},
    {"internalType":"int24","name":"opponentTickUpper","type":"int24"},
    {"internalType":"uint256","name":"creatorInRangeTime","type":"uint256"},
    {"internalType":"uint256","name":"opponentInRangeTime","type":"uint256"}
  ],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"battleId","type":"uint256"}],"name":"getFeeBattle","outputs":[
    {"internalType":"uint256","name":"creatorFeesAccrued","type":"uint256"},
    {"internalType":"uint256","name":"opponentFeesAccrued","type":"uint256"},
    {"internalType":"uint256","name":"creatorLpValue","type":"uint256"},
    {"internalType":"uint256","name":"opponentLpValue","type":"uint256"}
  ],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint8","name":"status","type":"uint8"}],"name":"getBattleIdsByStatus","outputs":[
    {"internalType":"uint256[]","name":"ids","type":"uint256[]"}
  ],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"getBattleCount","outputs":[
    {"internalType":"uint256","name":"","type":"uint256"}
  ],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"battleId","type":"uint256"}],"name":"isBattleExpired","outputs":[
    {"internalType":"bool","name":"","type":"bool"}
  ],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"battleId","type":"uint256"}],"name":"getTimeRemaining","outputs":[
    {"internalType":"uint256","name":"","type":"uint256"}
  ],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"battleId","type":"uint256"}],"name":"getCurrentPerformance","outputs":[
    {"internalType":"uint256","name":"creatorScore","type":"uint256"},
    {"internalType":"uint256","name":"opponentScore","type":"uint256"},
    {"internalType":"bool","name":"creatorInRange","type":"bool"},
    {"internalType":"bool","name":"opponentInRange","type":"bool"}
  ],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"battleId","type":"uint256"}],"name":"resolveBattle","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"uint256","name":"battleId","type":"uint256"}],"name":"updateBattleStatus","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[
    {"internalType":"uint8","name":"battleType","type":"uint8"},
    {"internalType":"bytes32","name":"poolId","type":"bytes32"},
    {"internalType":"uint8","name":"dexId","type":"uint8"},
    {"internalType":"uint256","name":"positionId","type":"uint256"},
    {"internalType":"uint256","name":"duration","type":"uint256"}
  ],"name":"createBattle","outputs":[
    {"internalType":"uint256","name":"battleId","type":"uint256"}
  ],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[
    {"internalType":"uint256","name":"battleId","type":"uint256"},
    {"internalType":"uint256","name":"positionId","type":"uint256"}
  ],"name":"joinBattle","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// Leaderboard contract ABI.
const leaderboardABIJSON = `[
  {"inputs":[{"internalType":"address","name":"player","type":"address"}],"name":"getPlayerStats","outputs":[
    {"internalType":"uint256","name":"elo","type":"uint256"},
    {"internalType":"uint256","name":"wins","type":"uint256"},
    {"internalType":"uint256","name":"losses","type":"uint256"},
    {"internalType":"uint256","name":"totalBattles","type":"uint256"},
    {"internalType":"uint256","name":"totalValueWon","type":"uint256"}
  ],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"getPlayerCount","outputs":[
    {"internalType":"uint256","name":"","type":"uint256"}
  ],"stateMutability":"view","type":"function"}
]`

// ArenaABI parses the arena ABI; panics only on a broken constant.
func ArenaABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(arenaABIJSON))
	if err != nil {
		panic("registry: invalid arena abi: " + err.Error())
	}
	return parsed
}

// LeaderboardABI parses the leaderboard ABI.
func LeaderboardABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(leaderboardABIJSON))
	if err != nil {
		panic("registry: invalid leaderboard abi: " + err.Error())
	}
	return parsed
}
