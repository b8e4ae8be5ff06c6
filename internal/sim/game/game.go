// Package game implements the public goods payoff rule.
package game

import (
	"fmt"
	"math"
)

// Rule supplies the marginal per-capita return of a public goods game.
// For a valid rule the mcpr must lie strictly between 1/n and 1: producing
// the good is individually wasteful but collectively profitable.
type Rule interface {
	// MCPR returns the marginal per-capita return for an average
	// contribution ratio r (0..1) and n participants.
	MCPR(r float64, n int) float64
	String() string
}

// Game wraps a validated payoff rule.
type Game struct {
	rule       Rule
	minPlayers int
}

// selfTestMaxN is the largest group size the construction-time bounds
// check covers.
const selfTestMaxN = 1000

// New validates the rule's mcpr bounds for every group size from
// minPlayers through 1000 and returns a Game. An out-of-bounds mcpr is a
// configuration error and fails construction; it is never checked per call.
func New(rule Rule, minPlayers int) (*Game, error) {
	if minPlayers < 2 {
		minPlayers = 2
	}
	for n := minPlayers; n <= selfTestMaxN; n++ {
		mcpr := rule.MCPR(0.5, n)
		if !(mcpr > 1.0/float64(n) && mcpr < 1.0) {
			return nil, fmt.Errorf("game %s: mcpr %g out of bounds for n=%d: must satisfy 1/n < mcpr < 1", rule, mcpr, n)
		}
	}
	return &Game{rule: rule, minPlayers: minPlayers}, nil
}

// MinPlayers is the smallest group size for which the rule is valid.
func (g *Game) MinPlayers() int { return g.minPlayers }

func (g *Game) String() string { return g.rule.String() }

// PerCapitaReturn computes the share of the public pool paid out to every
// participant: the rule's mcpr for the average contribution ratio times the
// total contribution. The caller guarantees at least one contribution and
// each contribution within [0, maxContribution].
func (g *Game) PerCapitaReturn(contributions []int, maxContribution int) float64 {
	n := len(contributions)
	total := 0
	for _, c := range contributions {
		total += c
	}
	r := float64(total) / float64(maxContribution*n)
	return g.rule.MCPR(r, n) * float64(total)
}

// Linear is a public goods game with mcpr = gain/n, gain > 1. The gain
// factor expresses the surplus of full cooperation.
type Linear struct {
	Gain float64
}

func (l Linear) MCPR(r float64, n int) float64 {
	return l.Gain / float64(n)
}

func (l Linear) String() string {
	return fmt.Sprintf("PublicGoodsGame(gain_factor = %f)", l.Gain)
}

// NewLinear builds a linear-gain game. Gains at or below 1.0 are rejected
// outright; the remaining bounds are covered by the construction self-test.
func NewLinear(gain float64) (*Game, error) {
	if gain <= 1.0 {
		return nil, fmt.Errorf("gain factor %g must be greater than 1.0", gain)
	}
	return New(Linear{Gain: gain}, int(math.Floor(gain))+1)
}
