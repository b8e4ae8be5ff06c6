// Package model holds the per-round agent records shared by the engine,
// the statistics layer and the chronicle serializer.
package model

// Allegiance identifies the institution an agent belongs to for one round.
type Allegiance string

const (
	// Sanctioning is the institution whose members may spend tokens to
	// reward or punish each other.
	Sanctioning Allegiance = "SI"
	// SanctionFree is the institution without a sanctioning stage.
	SanctionFree Allegiance = "SFI"
	// All is not an institution; it is the grouping key the statistics
	// layer uses for the whole population.
	All Allegiance = "ALL"
)

// Valid reports whether a is one of the two recognized institutions.
func (a Allegiance) Valid() bool {
	return a == Sanctioning || a == SanctionFree
}

// Info is the full (non-anonymized) state of one agent in one round.
// Sanction maps are keyed by anonymized peer index while a round is in
// progress and re-keyed to world agent index when the round is recorded.
// Copies of Info are appended to agent histories and to the chronicle at
// the end of every round and are never mutated afterwards.
type Info struct {
	Account       float64
	Allegiance    Allegiance
	Contribution  int
	Profit        float64
	SanctPositive map[int]int
	SanctNegative map[int]int
	ReceivedSanct int
	Commendations int
	Punishments   int
}

// NewInfo returns a zeroed record with allocated sanction maps.
func NewInfo() Info {
	return Info{
		Allegiance:    SanctionFree,
		SanctPositive: map[int]int{},
		SanctNegative: map[int]int{},
	}
}

// Clone returns a deep copy of the record.
func (in Info) Clone() Info {
	cp := in
	cp.SanctPositive = make(map[int]int, len(in.SanctPositive))
	for k, v := range in.SanctPositive {
		cp.SanctPositive[k] = v
	}
	cp.SanctNegative = make(map[int]int, len(in.SanctNegative))
	for k, v := range in.SanctNegative {
		cp.SanctNegative[k] = v
	}
	return cp
}

// SpentSanctioning is the total number of tokens the agent spent on
// positive and negative sanctions this round.
func (in Info) SpentSanctioning() int {
	total := 0
	for _, v := range in.SanctPositive {
		total += v
	}
	for _, v := range in.SanctNegative {
		total += v
	}
	return total
}

// NetProfit is the contribution-stage profit plus the sanction effects
// received from peers.
func (in Info) NetProfit() float64 {
	return in.Profit + float64(in.ReceivedSanct)
}

// OverallResult is the full round payoff: net profit plus the sanction
// endowment minus the tokens spent on sanctioning (unused sanction tokens
// are refunded).
func (in Info) OverallResult(sanctionEndowment int) float64 {
	return in.NetProfit() + float64(sanctionEndowment-in.SpentSanctioning())
}

// ResetSanctions clears every sanction-related field.
func (in *Info) ResetSanctions() {
	in.SanctPositive = map[int]int{}
	in.SanctNegative = map[int]int{}
	in.ReceivedSanct = 0
	in.Commendations = 0
	in.Punishments = 0
}

// PublicInfo is the anonymized projection of an Info record that agents
// see during the sanctioning stage. It carries no identity and no raw
// sanction maps, and the derived values are precomputed so readers do not
// need the round's endowments.
type PublicInfo struct {
	Allegiance    Allegiance
	Contribution  int
	Profit        float64
	ReceivedSanct int
	Commendations int
	Punishments   int
	NetProfit     float64
	OverallResult float64
	Sanctioning   int
}

// Public projects an Info record to its anonymized public view.
func Public(in Info, sanctionEndowment int) PublicInfo {
	return PublicInfo{
		Allegiance:    in.Allegiance,
		Contribution:  in.Contribution,
		Profit:        in.Profit,
		ReceivedSanct: in.ReceivedSanct,
		Commendations: in.Commendations,
		Punishments:   in.Punishments,
		NetProfit:     in.NetProfit(),
		OverallResult: in.OverallResult(sanctionEndowment),
		Sanctioning:   in.SpentSanctioning(),
	}
}
