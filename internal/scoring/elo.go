package scoring

// ELO rating parameters, matching the leaderboard contract.
const (
	DefaultELO = 1000 // rating for players with no recorded battles
	MinELO     = 100  // losses never push a rating below this
	eloK       = 32
	eloScale   = 1000 // probability scale: eloScale = certain win
	eloSpread  = 400  // rating gap that dominates the expectation
)

// expectedScore approximates the winner's win probability on the eloScale,
// linear in the rating difference and clamped to [0, eloScale].
func expectedScore(winnerELO, loserELO uint64) uint64 {
	half := uint64(eloScale / 2)
	if winnerELO >= loserELO {
		diff := winnerELO - loserELO
		expected := half + diff*eloScale/(4*eloSpread)
		if expected > eloScale {
			return eloScale
		}
		return expected
	}
	diff := loserELO - winnerELO
	shift := diff * eloScale / (4 * eloSpread)
	if shift >= half {
		return 0
	}
	return half - shift
}

// NewELO returns both players' ratings after a battle. The winner always
// gains at least one point; the loser never drops below MinELO.
func NewELO(winnerELO, loserELO uint64) (newWinner, newLoser uint64) {
	expected := expectedScore(winnerELO, loserELO)

	gain := eloK * (eloScale - expected) / eloScale
	if gain == 0 {
		gain = 1
	}

	newWinner = winnerELO + gain
	if loserELO <= MinELO+gain {
		newLoser = MinELO
	} else {
		newLoser = loserELO - gain
	}
	return newWinner, newLoser
}
