package stats

import (
	"fmt"

	"publicgoods.sim/internal/sim/model"
)

// Round gathers the agent records of a single round, partitioned by
// allegiance, and answers value and selection queries over them. Results
// are memoized for the life of the Round, so repeated queries are cheap
// and side-effect free.
type Round struct {
	// RoundNr is the round the records describe. The snapshot the world
	// exposes to agents describes the previous round, so this is -1 on
	// the first round and -2 before any round has run.
	RoundNr int

	infos map[model.Allegiance][]model.PublicInfo
	cache map[cacheKey]any
}

type cacheKey struct {
	op         string
	name       string
	allegiance model.Allegiance
	field      string
}

// NewRound builds the statistics view for one round's records.
func NewRound(infos []model.PublicInfo, roundNr int) *Round {
	byAllegiance := map[model.Allegiance][]model.PublicInfo{
		model.All:          infos,
		model.Sanctioning:  nil,
		model.SanctionFree: nil,
	}
	for _, in := range infos {
		byAllegiance[in.Allegiance] = append(byAllegiance[in.Allegiance], in)
	}
	return &Round{
		RoundNr: roundNr,
		infos:   byAllegiance,
		cache:   map[cacheKey]any{},
	}
}

// Infos returns the records of one allegiance group (or the whole
// population for model.All). The returned slice must not be modified.
func (r *Round) Infos(allegiance model.Allegiance) []model.PublicInfo {
	return r.infos[allegiance]
}

// ValueList returns the values the group's records hold in the named
// field. Field names are those of PublicInfo's numeric fields; an unknown
// name is a programming error and panics.
func (r *Round) ValueList(allegiance model.Allegiance, field string) []float64 {
	infos := r.infos[allegiance]
	values := make([]float64, len(infos))
	for i, in := range infos {
		values[i] = numericField(in, field)
	}
	return values
}

// Value applies an aggregator to the group's values in the named field
// and caches the result under the (aggregator name, allegiance, field)
// key.
func (r *Round) Value(agg Aggregator, allegiance model.Allegiance, field string) float64 {
	key := cacheKey{op: "value", name: agg.Name, allegiance: allegiance, field: field}
	if v, ok := r.cache[key]; ok {
		return v.(float64)
	}
	result := agg.Apply(r.ValueList(allegiance, field))
	r.cache[key] = result
	return result
}

// Agents applies a selector to the group's records according to the named
// field and caches the result under the (selector name, allegiance, field)
// key.
func (r *Round) Agents(sel Selector, allegiance model.Allegiance, field string) []model.PublicInfo {
	key := cacheKey{op: "agents", name: sel.Name, allegiance: allegiance, field: field}
	if v, ok := r.cache[key]; ok {
		return v.([]model.PublicInfo)
	}
	result := sel.Apply(r.infos[allegiance], r.ValueList(allegiance, field))
	r.cache[key] = result
	return result
}

func numericField(in model.PublicInfo, field string) float64 {
	switch field {
	case "contribution":
		return float64(in.Contribution)
	case "profit":
		return in.Profit
	case "receivedSanct":
		return float64(in.ReceivedSanct)
	case "commendations":
		return float64(in.Commendations)
	case "punishments":
		return float64(in.Punishments)
	case "netProfit":
		return in.NetProfit
	case "overallResult":
		return in.OverallResult
	case "sanctioning":
		return float64(in.Sanctioning)
	default:
		panic(fmt.Sprintf("stats: no numeric field %q on agent records", field))
	}
}
