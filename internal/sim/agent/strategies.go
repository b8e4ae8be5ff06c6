package agent

import (
	"publicgoods.sim/internal/sim/model"
	"publicgoods.sim/internal/sim/stats"
)

// RandomChoice flips a coin between the two institutions every round.
type RandomChoice struct{}

func (RandomChoice) ChooseInstitution(a *Agent) model.Allegiance {
	if a.World().Rand.Intn(2) == 1 {
		return model.Sanctioning
	}
	return model.SanctionFree
}

// ProfitBasedChoice compares last round's median profits of the two
// institutions and defects toward the better one with probability 0.3.
type ProfitBasedChoice struct{}

func (ProfitBasedChoice) ChooseInstitution(a *Agent) model.Allegiance {
	w := a.World()
	if w.RoundNr == 0 {
		return RandomChoice{}.ChooseInstitution(a)
	}
	sfiProfit := w.Statistics.Value(stats.MedianOf, model.SanctionFree, "profit")
	siProfit := w.Statistics.Value(stats.MedianOf, model.Sanctioning, "profit")
	switch {
	case sfiProfit > siProfit && w.Rand.Float64() < 0.3:
		return model.SanctionFree
	case sfiProfit < siProfit && w.Rand.Float64() < 0.3:
		return model.Sanctioning
	default:
		return a.Info().Allegiance
	}
}

// FixedChoice always joins the same institution.
type FixedChoice struct {
	Institution model.Allegiance
}

func (c FixedChoice) ChooseInstitution(*Agent) model.Allegiance {
	return c.Institution
}

// RandomContribution contributes a uniformly random share of the
// endowment.
type RandomContribution struct{}

func (RandomContribution) Contribute(a *Agent, tokens int) int {
	return a.World().Rand.Intn(tokens + 1)
}

// FixedContribution always contributes the same number of tokens,
// clamped to the endowment.
type FixedContribution struct {
	Tokens int
}

func (c FixedContribution) Contribute(_ *Agent, tokens int) int {
	return max(0, min(c.Tokens, tokens))
}

// ModerateEgoistContribution imitates the field after an institution
// switch, free-rides gently while doing well and concedes to sustained
// punishment only when full cooperation would pay better.
type ModerateEgoistContribution struct{}

func (ModerateEgoistContribution) Contribute(a *Agent, tokens int) int {
	w := a.World()
	if w.RoundNr == 0 {
		return w.Rand.Intn(tokens/2 + 1)
	}

	st := w.Statistics
	info := a.Info()
	if a.lastRound().Allegiance != info.Allegiance {
		// Just changed the allegiance: when in Rome do as the Romans.
		return int(st.Value(stats.MeanOf, info.Allegiance, "contribution"))
	}

	if info.Allegiance == model.SanctionFree {
		mProfit := st.Value(stats.MedianOf, model.SanctionFree, "profit")
		mContrib := st.Value(stats.MeanOf, model.SanctionFree, "contribution")
		if mProfit >= info.Profit {
			return info.Contribution * 2 / 3
		}
		return max(int(mContrib), info.Contribution)
	}

	if info.ReceivedSanct < 0 {
		// Would the pool pay off if everyone else kept contributing as
		// they did and this agent went all in?
		contribs := othersContributions(st, info.Contribution)
		pcr := w.Game.PerCapitaReturn(append(contribs, tokens), tokens)
		if pcr > info.NetProfit() {
			return tokens
		}
		return info.Contribution
	}
	if info.ReceivedSanct > 0 {
		return info.Contribution
	}
	return info.Contribution * 9 / 10
}

// othersContributions is last round's contribution list of the
// sanctioning institution with one occurrence of own removed.
func othersContributions(st *stats.Round, own int) []int {
	values := st.ValueList(model.Sanctioning, "contribution")
	out := make([]int, 0, len(values))
	removed := false
	for _, v := range values {
		if !removed && int(v) == own {
			removed = true
			continue
		}
		out = append(out, int(v))
	}
	return out
}

// SimpleHeuristicsContribution keeps a profitable contribution, doubles
// it under punishment and halves it otherwise.
type SimpleHeuristicsContribution struct{}

func (SimpleHeuristicsContribution) Contribute(a *Agent, tokens int) int {
	w := a.World()
	if w.RoundNr == 0 {
		half := tokens / 2
		return half + w.Rand.Intn(tokens-half+1)
	}

	info := a.Info()
	if a.lastRound().Allegiance != info.Allegiance {
		return int(w.Statistics.Value(stats.MeanOf, info.Allegiance, "contribution"))
	}

	if info.Allegiance == model.Sanctioning {
		if info.NetProfit() > float64(info.Contribution) {
			return info.Contribution
		}
		if info.ReceivedSanct < 0 {
			return min(tokens, info.Contribution*2)
		}
		return info.Contribution / 2
	}
	return info.Contribution / 2
}

// NoSanctions never spends any sanction tokens.
type NoSanctions struct{}

func (NoSanctions) Sanction(*Agent, int, []int) (positive, negative map[int]int) {
	return map[int]int{}, map[int]int{}
}

// StepwiseSanctions punishes low contributors by contribution quartile,
// punishing harder the less they gave, and commends top contributors
// with whatever third of the budget remains.
type StepwiseSanctions struct{}

func (StepwiseSanctions) Sanction(a *Agent, tokens int, others []int) (positive, negative map[int]int) {
	w := a.World()
	initial := tokens
	positive = map[int]int{}
	negative = map[int]int{}

	q1 := w.ContribTokens / 4
	q2 := w.ContribTokens * 2 / 4
	q3 := w.ContribTokens * 3 / 4
	q4 := w.ContribTokens
	infos := w.AnonymizedInfos

	tokens = selectForSanction(negative, tokens, infos, others,
		func(c int) bool { return c < q1 }, 2)
	tokens = selectForSanction(negative, tokens, infos, others,
		func(c int) bool { return c >= q1 && c < q2 }, 1)

	// Commendations are considered less important.
	tokens /= 3
	if tokens < initial/3 {
		tokens = selectForSanction(positive, tokens, infos, others,
			func(c int) bool { return c == q4 }, 2)
		tokens = selectForSanction(positive, tokens, infos, others,
			func(c int) bool { return c >= q3 && c < q4 }, 1)
	}

	selectForSanction(negative, tokens, infos, others,
		func(c int) bool { return c >= q2 && c < q3 }, 1)

	return positive, negative
}

// selectForSanction sanctions every sanctioning-institution member among
// others whose contribution matches, with strength tokens each (less
// when the budget does not stretch that far). Returns the budget left.
func selectForSanction(dst map[int]int, tokens int, infos []model.PublicInfo, others []int, match func(int) bool, strength int) int {
	baddies := map[int]bool{}
	for _, i := range others {
		if infos[i].Allegiance == model.Sanctioning && match(infos[i].Contribution) {
			baddies[i] = true
		}
	}
	if len(baddies) == 0 {
		return tokens
	}
	spend := max(1, min(strength, tokens/len(baddies)))
	for _, i := range others {
		if _, done := dst[i]; baddies[i] && !done && tokens >= spend {
			dst[i] = spend
			tokens -= spend
		}
	}
	return tokens
}
