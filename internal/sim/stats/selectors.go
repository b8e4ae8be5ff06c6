package stats

import (
	"math"

	"publicgoods.sim/internal/sim/model"
)

// Selector is a named function picking the agent records holding
// distinguished positions in a value list. Like Aggregator, the name is
// the memoization key. Apply receives parallel info/value lists and must
// not mutate either.
type Selector struct {
	Name  string
	Apply func(infos []model.PublicInfo, values []float64) []model.PublicInfo
}

func extremeAgents(infos []model.PublicInfo, values []float64, better func(a, b float64) bool) []model.PublicInfo {
	if len(values) == 0 {
		return nil
	}
	pivot := values[0]
	result := []model.PublicInfo{infos[0]}
	for i := 1; i < len(values); i++ {
		switch {
		case better(values[i], pivot):
			pivot = values[i]
			result = []model.PublicInfo{infos[i]}
		case values[i] == pivot:
			result = append(result, infos[i])
		}
	}
	return result
}

// NearestAgents returns the records whose value equals the pivot or, if
// the pivot is absent from the value list, the records holding the highest
// value below the pivot followed by the records holding the lowest value
// above it. Both groups are always considered and either may be empty.
func NearestAgents(infos []model.PublicInfo, values []float64, pivot float64) []model.PublicInfo {
	if len(values) == 0 {
		return nil
	}
	below, above := pivot, pivot
	exact := false
	for _, v := range values {
		if v == pivot {
			exact = true
			break
		}
	}
	if !exact {
		for _, v := range values {
			if v < pivot && (v > below || below == pivot) {
				below = v
			} else if v > pivot && (v < above || above == pivot) {
				above = v
			}
		}
	}
	var result []model.PublicInfo
	for i, v := range values {
		if v == below {
			result = append(result, infos[i])
		}
	}
	if above != below {
		for i, v := range values {
			if v == above {
				result = append(result, infos[i])
			}
		}
	}
	return result
}

// ClosestAgents returns the records minimizing the absolute distance to
// the pivot; all ties are included. If the pivot occurs exactly, only the
// records holding it are returned.
func ClosestAgents(infos []model.PublicInfo, values []float64, pivot float64) []model.PublicInfo {
	if len(values) == 0 {
		return nil
	}
	minDelta := math.Abs(pivot - values[0])
	result := []model.PublicInfo{infos[0]}
	for i := 1; i < len(values); i++ {
		delta := math.Abs(pivot - values[i])
		switch {
		case delta < minDelta:
			minDelta = delta
			result = []model.PublicInfo{infos[i]}
		case delta == minDelta:
			result = append(result, infos[i])
		}
	}
	return result
}

// The standard selectors for Round.Agents.
var (
	// MaxAgents returns every record tied at the highest value.
	MaxAgents = Selector{
		Name: "max",
		Apply: func(infos []model.PublicInfo, values []float64) []model.PublicInfo {
			return extremeAgents(infos, values, func(a, b float64) bool { return a > b })
		},
	}

	// MinAgents returns every record tied at the lowest value.
	MinAgents = Selector{
		Name: "min",
		Apply: func(infos []model.PublicInfo, values []float64) []model.PublicInfo {
			return extremeAgents(infos, values, func(a, b float64) bool { return a < b })
		},
	}

	// MeanAgents returns the records closest to the mean value.
	MeanAgents = Selector{
		Name: "mean",
		Apply: func(infos []model.PublicInfo, values []float64) []model.PublicInfo {
			return ClosestAgents(infos, values, Mean(values))
		},
	}

	// MedianAgents returns the records holding the median value or, when
	// the median falls between two values, the below-median group followed
	// by the above-median group.
	MedianAgents = Selector{
		Name: "median",
		Apply: func(infos []model.PublicInfo, values []float64) []model.PublicInfo {
			return NearestAgents(infos, values, Median(values))
		},
	}
)
