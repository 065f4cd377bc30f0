package domain

// PlayerStats is one player's leaderboard entry.
type PlayerStats struct {
	Address       string // hex address
	ELO           uint64
	Wins          uint64
	Losses        uint64
	TotalBattles  uint64
	TotalValueWon uint64 // USD with 8 decimals, as stored on chain
}

// WinRate returns wins over total battles, zero when the player has none.
func (p *PlayerStats) WinRate() float64 {
	if p.TotalBattles == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.TotalBattles)
}
