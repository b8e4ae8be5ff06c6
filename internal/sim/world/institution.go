package world

import (
	"errors"
	"fmt"
	"sort"

	"publicgoods.sim/internal/sim/model"
)

// Protocol violations by agents. Both abort the run: a record built on
// an invalid decision is worthless.
var (
	ErrInstitutionChoice = errors.New("invalid institution choice")
	ErrContributionRange = errors.New("contribution out of range")
	ErrInvalidSanction   = errors.New("invalid sanction")
)

// punishment scales negative sanction tokens into their impact on the
// target's account.
func punishment(tokens int) int { return -3 * tokens }

// commendation maps positive sanction tokens one to one.
func commendation(tokens int) int { return tokens }

// institution holds what both institution kinds share: a membership
// roster rebuilt every round and the contribution stage.
type institution struct {
	world   *World
	members []Agent
}

// contributionStage asks every member for a contribution, settles the
// public pool and credits each member's profit. A roster with no
// members skips the stage entirely.
func (in *institution) contributionStage() error {
	if len(in.members) == 0 {
		return nil
	}
	w := in.world

	contribs := make([]int, len(in.members))
	for i, a := range in.members {
		c := a.Contribute(w.ContribTokens)
		if c < 0 || c > w.ContribTokens {
			return fmt.Errorf("%w: agent %s contributed %d of %d tokens",
				ErrContributionRange, a.ID(), c, w.ContribTokens)
		}
		a.Info().Contribution = c
		contribs[i] = c
	}

	pcr := w.Game.PerCapitaReturn(contribs, w.ContribTokens)
	for i, a := range in.members {
		info := a.Info()
		info.Profit = pcr + float64(w.ContribTokens-contribs[i])
		info.Account += info.Profit
	}
	return nil
}

// resetAndCredit clears all sanction fields and hands out the full
// sanction endowment. With nobody to sanction, nothing is ever spent.
func (in *institution) resetAndCredit() {
	for _, a := range in.members {
		info := a.Info()
		info.ResetSanctions()
		info.Account += float64(in.world.SanctionTokens)
	}
}

// sanctionFreeInstitution never sanctions: its sanctioning stage only
// resets fields and refunds the untouched endowment.
type sanctionFreeInstitution struct {
	institution
}

func (in *sanctionFreeInstitution) sanctioningStage() {
	in.resetAndCredit()
}

// sanctioningInstitution lets members spend their sanction endowment on
// commending or punishing anonymized peers.
type sanctioningInstitution struct {
	institution
}

// sanctioningStage collects sanctions from every member first and
// applies the impacts only afterwards, so no decision this round can
// observe another member's sanctions. On round 0 there is no public
// information to sanction on yet, so the stage degrades to the
// sanction-free behavior.
func (in *sanctioningInstitution) sanctioningStage() error {
	if len(in.members) == 0 {
		return nil
	}
	w := in.world
	if w.RoundNr <= 0 {
		in.resetAndCredit()
		return nil
	}

	byAnon := make(map[int]Agent, len(in.members))
	anons := make([]int, 0, len(in.members))
	for _, a := range in.members {
		idx := w.AnonymizedIndex(a)
		byAnon[idx] = a
		anons = append(anons, idx)
	}
	sort.Ints(anons)

	// Anonymized index to position in the canonical agent list, for
	// the permanent record of who sanctioned whom.
	indexMap := make(map[int]int, len(w.agents))
	for i, a := range w.agents {
		indexMap[w.AnonymizedIndex(a)] = i
	}

	for _, a := range in.members {
		info := a.Info()
		info.ReceivedSanct = 0
		info.Commendations = 0
		info.Punishments = 0
		info.Account += float64(w.SanctionTokens)
	}

	type sanction struct {
		positive, negative map[int]int
	}
	collected := make([]sanction, len(in.members))
	for i, a := range in.members {
		self := w.AnonymizedIndex(a)
		others := make([]int, 0, len(anons)-1)
		for _, idx := range anons {
			if idx != self {
				others = append(others, idx)
			}
		}

		positive, negative := a.Sanction(w.SanctionTokens, others)
		if !model.ValidateSanctions(positive, negative, w.SanctionTokens, others) {
			spent := mapSum(positive) + mapSum(negative)
			return fmt.Errorf("%w: agent %s returned positive %v negative %v, spending %d of %d tokens",
				ErrInvalidSanction, a.ID(), positive, negative, spent, w.SanctionTokens)
		}

		spent := mapSum(positive) + mapSum(negative)
		info := a.Info()
		info.Account += float64(w.SanctionTokens - spent)
		info.SanctPositive = rekey(positive, indexMap)
		info.SanctNegative = rekey(negative, indexMap)
		collected[i] = sanction{positive: positive, negative: negative}
	}

	for _, s := range collected {
		for k, v := range s.negative {
			info := byAnon[k].Info()
			info.Punishments += v
			impact := punishment(v)
			info.ReceivedSanct += impact
			info.Account += float64(impact)
		}
	}
	for _, s := range collected {
		for k, v := range s.positive {
			info := byAnon[k].Info()
			info.Commendations += v
			impact := commendation(v)
			info.ReceivedSanct += impact
			info.Account += float64(impact)
		}
	}
	return nil
}

func mapSum(m map[int]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

func rekey(m map[int]int, indexMap map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[indexMap[k]] = v
	}
	return out
}
