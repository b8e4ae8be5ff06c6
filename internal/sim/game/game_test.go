package game

import (
	"math"
	"testing"
)

func TestNewLinearValidatesGain(t *testing.T) {
	if _, err := NewLinear(1.6); err != nil {
		t.Fatalf("gain 1.6: %v", err)
	}
	for _, gain := range []float64{1.0, 0.5, -2.0} {
		if _, err := NewLinear(gain); err == nil {
			t.Fatalf("gain %g: expected error", gain)
		}
	}
}

func TestNewRejectsOutOfBoundsRule(t *testing.T) {
	// gain 3000 makes mcpr = 3000/n >= 1 for every n <= 1000.
	if _, err := New(Linear{Gain: 3000}, 2); err == nil {
		t.Fatal("expected bounds error")
	}
}

func TestPerCapitaReturn(t *testing.T) {
	g, err := NewLinear(1.6)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}

	// Two players, one contributes everything: pool of 20 tokens at
	// mcpr 1.6/2 pays 16 to each.
	got := g.PerCapitaReturn([]int{20, 0}, 20)
	if math.Abs(got-16) > 1e-9 {
		t.Fatalf("pcr = %g, want 16", got)
	}

	if got := g.PerCapitaReturn([]int{0, 0, 0}, 20); got != 0 {
		t.Fatalf("pcr of empty pool = %g, want 0", got)
	}
}

func TestPerCapitaReturnIsIndividuallyWasteful(t *testing.T) {
	g, err := NewLinear(1.6)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}
	// A lone full contribution among 10 players must pay back less
	// than it cost, while full cooperation pays more.
	solo := g.PerCapitaReturn([]int{20, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 20)
	if solo >= 20 {
		t.Fatalf("solo contribution pays %g, expected < 20", solo)
	}
	full := g.PerCapitaReturn([]int{20, 20, 20, 20, 20, 20, 20, 20, 20, 20}, 20)
	if full <= 20 {
		t.Fatalf("full cooperation pays %g, expected > 20", full)
	}
}

func TestMinPlayers(t *testing.T) {
	g, err := NewLinear(1.6)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}
	if g.MinPlayers() != 2 {
		t.Fatalf("MinPlayers = %d, want 2", g.MinPlayers())
	}
}
