package stats

import (
	"math"
	"testing"

	"publicgoods.sim/internal/sim/model"
)

func contribInfos(allegiance model.Allegiance, contribs ...int) []model.PublicInfo {
	infos := make([]model.PublicInfo, len(contribs))
	for i, c := range contribs {
		infos[i] = model.PublicInfo{Allegiance: allegiance, Contribution: c}
	}
	return infos
}

func contributions(infos []model.PublicInfo) []int {
	out := make([]int, len(infos))
	for i, in := range infos {
		out[i] = in.Contribution
	}
	return out
}

func TestAggregators(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 6}); got != 3 {
		t.Fatalf("mean = %g, want 3", got)
	}
	if got := Median([]float64{5, 1, 3}); got != 3 {
		t.Fatalf("odd median = %g, want 3", got)
	}
	if got := Median([]float64{4, 1, 2, 3}); got != 2.5 {
		t.Fatalf("even median = %g, want 2.5", got)
	}
	if got := Mean(nil); got != 0 {
		t.Fatalf("empty mean = %g, want 0", got)
	}
	if got := Median(nil); got != 0 {
		t.Fatalf("empty median = %g, want 0", got)
	}
}

func TestExtremeSelectors(t *testing.T) {
	infos := contribInfos(model.Sanctioning, 5, 3, 5, 1)
	values := []float64{5, 3, 5, 1}

	maxed := MaxAgents.Apply(infos, values)
	if got := contributions(maxed); len(got) != 2 || got[0] != 5 || got[1] != 5 {
		t.Fatalf("max agents = %v, want [5 5]", got)
	}
	mined := MinAgents.Apply(infos, values)
	if got := contributions(mined); len(got) != 1 || got[0] != 1 {
		t.Fatalf("min agents = %v, want [1]", got)
	}
}

func TestNearestAgents(t *testing.T) {
	infos := contribInfos(model.SanctionFree, 1, 2, 3, 4)
	values := []float64{1, 2, 3, 4}

	// Median of [1 2 3 4] is 2.5: no exact holder, so the group just
	// below comes first, then the group just above.
	got := contributions(NearestAgents(infos, values, 2.5))
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("nearest to 2.5 = %v, want [2 3]", got)
	}

	// Exact holders only.
	got = contributions(NearestAgents(infos, values, 3))
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("nearest to 3 = %v, want [3]", got)
	}

	// Pivot below every value: the below-group is empty.
	got = contributions(NearestAgents(infos, values, 0))
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("nearest to 0 = %v, want [1]", got)
	}
}

func TestClosestAgents(t *testing.T) {
	infos := contribInfos(model.SanctionFree, 1, 2, 4)
	values := []float64{1, 2, 4}

	// 3 is equally far from 2 and 4: ties are all included.
	got := contributions(ClosestAgents(infos, values, 3))
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Fatalf("closest to 3 = %v, want [2 4]", got)
	}
}

func TestRoundPartitionsAndMemoizes(t *testing.T) {
	infos := append(contribInfos(model.Sanctioning, 10, 20),
		contribInfos(model.SanctionFree, 0, 4)...)
	r := NewRound(infos, 0)

	if got := len(r.Infos(model.Sanctioning)); got != 2 {
		t.Fatalf("SI partition size = %d, want 2", got)
	}
	if got := len(r.Infos(model.All)); got != 4 {
		t.Fatalf("ALL partition size = %d, want 4", got)
	}

	first := r.Value(MeanOf, model.Sanctioning, "contribution")
	if first != 15 {
		t.Fatalf("mean SI contribution = %g, want 15", first)
	}
	// Re-reads are idempotent and hit the cache.
	for i := 0; i < 3; i++ {
		if got := r.Value(MeanOf, model.Sanctioning, "contribution"); got != first {
			t.Fatalf("memoized value changed: %g != %g", got, first)
		}
	}

	agents := r.Agents(MedianAgents, model.SanctionFree, "contribution")
	again := r.Agents(MedianAgents, model.SanctionFree, "contribution")
	if len(agents) != len(again) {
		t.Fatalf("memoized selector changed: %d != %d agents", len(agents), len(again))
	}
}

func TestExperimentAddSequencing(t *testing.T) {
	infos := contribInfos(model.SanctionFree, 5, 5)
	e := NewExperiment(20, 20, []string{"a", "b"}, []string{"X", "X"})

	if err := e.Add(infos, 1); err == nil {
		t.Fatal("out-of-sequence round accepted")
	}
	if err := e.Add(infos, 0); err != nil {
		t.Fatalf("round 0: %v", err)
	}
	if err := e.Add(contribInfos(model.SanctionFree, 5, 5, 5), 1); err == nil {
		t.Fatal("agent-count change accepted")
	}
	if err := e.Add(infos, 1); err != nil {
		t.Fatalf("round 1: %v", err)
	}
	if _, err := e.Evaluation(); err != nil {
		t.Fatalf("evaluation: %v", err)
	}
	if err := e.Add(infos, 2); err == nil {
		t.Fatal("round added after evaluation")
	}
}

func TestEvaluationEmptyExperiment(t *testing.T) {
	e := NewExperiment(20, 20, nil, nil)
	if _, err := e.Evaluation(); err == nil {
		t.Fatal("expected error for empty experiment")
	}
}

func TestEvaluationSeries(t *testing.T) {
	si := []model.PublicInfo{
		{Allegiance: model.Sanctioning, Contribution: 20, OverallResult: 30, Sanctioning: 2},
		{Allegiance: model.Sanctioning, Contribution: 16, OverallResult: 26},
	}
	sfi := []model.PublicInfo{
		{Allegiance: model.SanctionFree, Contribution: 0, OverallResult: 40},
		{Allegiance: model.SanctionFree, Contribution: 10, OverallResult: 20},
	}
	e := NewExperiment(20, 20,
		[]string{"a", "b", "c", "d"}, []string{"P", "N", "F", "F"})
	if err := e.Add(append(append([]model.PublicInfo{}, si...), sfi...), 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	eval, err := e.Evaluation()
	if err != nil {
		t.Fatalf("evaluation: %v", err)
	}

	if got := eval.Series[SIMembers][0]; got != 0.5 {
		t.Fatalf("SI members = %g, want 0.5", got)
	}
	if got := eval.Series[SFIMembers][0]; got != 0.5 {
		t.Fatalf("SFI members = %g, want 0.5", got)
	}
	// Both SI agents contribute at least three quarters of 20.
	if got := eval.Series[HighContributors][0]; got != 0.5 {
		t.Fatalf("high contributors = %g, want 0.5", got)
	}
	// Only the zero contributor stays at or below a quarter of 20.
	if got := eval.Series[FreeRiders][0]; got != 0.25 {
		t.Fatalf("free riders = %g, want 0.25", got)
	}
	if got := eval.Series[AvContribSI][0]; got != 0.9 {
		t.Fatalf("average SI contribution = %g, want 0.9", got)
	}
	if got := eval.Series[PayoffHC][0]; got != 28 {
		t.Fatalf("high contributor payoff = %g, want 28", got)
	}
	// One of the two SI members punishes.
	if got := eval.Series[PunishHC][0]; got != 0.5 {
		t.Fatalf("punishing high contributors = %g, want 0.5", got)
	}

	if got := eval.Agents["a"][AgSI][0]; got != 1 {
		t.Fatalf("agent a SI membership = %g, want 1", got)
	}
	if got := eval.Agents["c"][AgSFI][0]; got != 1 {
		t.Fatalf("agent c SFI membership = %g, want 1", got)
	}
	cs, ok := eval.Classes["F"]
	if !ok {
		t.Fatal("class F missing from evaluation")
	}
	if got := cs.Mean[AgPayoff][0]; got != 30 {
		t.Fatalf("class F mean payoff = %g, want 30", got)
	}
}

func TestEvaluationEmptyGroupsAreNaN(t *testing.T) {
	e := NewExperiment(20, 20, []string{"a", "b"}, []string{"X", "X"})
	if err := e.Add(contribInfos(model.SanctionFree, 10, 10), 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	eval, err := e.Evaluation()
	if err != nil {
		t.Fatalf("evaluation: %v", err)
	}
	if !math.IsNaN(eval.Series[PayoffHC][0]) {
		t.Fatalf("payoff of empty group = %g, want NaN", eval.Series[PayoffHC][0])
	}
	if !math.IsNaN(eval.Series[PunishHC][0]) {
		t.Fatalf("punisher ratio without SI members = %g, want NaN", eval.Series[PunishHC][0])
	}
}
