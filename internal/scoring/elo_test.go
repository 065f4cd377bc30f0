package scoring

import "testing"

func TestNewELOEvenMatch(t *testing.T) {
	// Equal ratings: expected 500/1000, gain = 32*500/1000 = 16.
	newWinner, newLoser := NewELO(1000, 1000)
	if newWinner != 1016 {
		t.Errorf("winner: got %d, want 1016", newWinner)
	}
	if newLoser != 984 {
		t.Errorf("loser: got %d, want 984", newLoser)
	}
}

func TestNewELOFavoriteWins(t *testing.T) {
	// 400-point favorite: expected 750, gain 8.
	newWinner, newLoser := NewELO(1400, 1000)
	if newWinner != 1408 {
		t.Errorf("winner: got %d, want 1408", newWinner)
	}
	if newLoser != 992 {
		t.Errorf("loser: got %d, want 992", newLoser)
	}
}

func TestNewELOUpset(t *testing.T) {
	// 400-point underdog wins: expected 250, gain 24.
	newWinner, newLoser := NewELO(1000, 1400)
	if newWinner != 1024 {
		t.Errorf("winner: got %d, want 1024", newWinner)
	}
	if newLoser != 1376 {
		t.Errorf("loser: got %d, want 1376", newLoser)
	}
}

func TestNewELOMinimumGain(t *testing.T) {
	// A crushing favorite still gains at least one point.
	newWinner, newLoser := NewELO(3000, MinELO)
	if newWinner != 3001 {
		t.Errorf("winner: got %d, want 3001", newWinner)
	}
	if newLoser != MinELO {
		t.Errorf("loser: got %d, want %d (floor)", newLoser, MinELO)
	}
}

func TestNewELOLoserFloor(t *testing.T) {
	// Even match at a low rating: gain 16 would push the loser under the floor.
	_, newLoser := NewELO(105, 105)
	if newLoser != MinELO {
		t.Errorf("loser: got %d, want %d (floor)", newLoser, MinELO)
	}
}
