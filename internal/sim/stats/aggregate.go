// Package stats aggregates per-round agent records into descriptive
// statistics: per-round group queries with memoized results and
// experiment-level time series.
package stats

import "sort"

// Aggregator is a named reduction over a value list. The name is part of
// the memoization key, so two aggregators with the same name are treated
// as the same computation.
type Aggregator struct {
	Name  string
	Apply func(values []float64) float64
}

// Mean returns the arithmetic mean of values, or 0 for an empty list.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the median of values, or 0 for an empty list. The input
// is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// MeanOf and MedianOf are the standard aggregators for Round.Value.
var (
	MeanOf   = Aggregator{Name: "mean", Apply: Mean}
	MedianOf = Aggregator{Name: "median", Apply: Median}
)
