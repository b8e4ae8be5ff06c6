package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"publicgoods.sim/internal/sim/model"
)

// Population-level evaluation series keys.
const (
	SIMembers        = "Subjects choosing SI"
	SFIMembers       = "Subjects choosing SFI"
	AvContribSI      = "Average contribution in SI"
	AvContribSFI     = "Average contribution in SFI"
	HighContributors = "High contributers in SI"
	FreeRiders       = "Free-riders in SFI"
	PayoffHC         = "Average payoff of high contributors in SI"
	PayoffFR         = "Average payoff of free-riders in SFI"
	NoPunishHC       = "High contributers & non-punishers"
	PunishHC         = "High contributers & punishers"
	PayoffNoPunishHC = "Average payoff of high contributers & non-punishers"
	PayoffPunishHC   = "Average payoff of high contributers & punishers"
)

// EvaluationKeys lists the population series in presentation order.
var EvaluationKeys = []string{
	SIMembers, SFIMembers, AvContribSI, AvContribSFI,
	HighContributors, FreeRiders, PayoffHC, PayoffFR,
	NoPunishHC, PunishHC, PayoffNoPunishHC, PayoffPunishHC,
}

// Per-agent series keys.
const (
	AgSI      = "SI member"
	AgSFI     = "SFI member"
	AgContrib = "Agent's contribution"
	AgSanct   = "Agent's amount of sanctioning"
	AgPayoff  = "Agent's payoff"
	AgPunish  = "Punishments received by agent"
	AgCommend = "Commendations received by agent"
)

// AgentKeys lists the per-agent series in presentation order.
var AgentKeys = []string{AgSI, AgSFI, AgContrib, AgSanct, AgPayoff, AgPunish, AgCommend}

// AgentSeries is the per-round time series of one agent, keyed by the
// Ag* constants.
type AgentSeries map[string][]float64

// ClassSeries aggregates the series of all agents sharing a class id:
// per-round mean and population standard deviation for each Ag* key.
type ClassSeries struct {
	Mean      map[string][]float64
	Deviation map[string][]float64
}

// Evaluation is the complete experiment-level statistics output. Reporting
// consumers read only this structure.
type Evaluation struct {
	Series  map[string][]float64
	Agents  map[string]AgentSeries
	Classes map[string]ClassSeries

	// AgentOrder and ClassOrder preserve the canonical listing order.
	AgentOrder []string
	ClassOrder []string
}

// Experiment accumulates one Round per game round, in canonical agent
// order, and computes the experiment-level evaluation on demand. Rounds
// must be added with consecutive round numbers and a constant agent count.
type Experiment struct {
	contribTokens  int
	sanctionTokens int
	agentIDs       []string
	agentClasses   []string

	numAgents int
	rounds    []*Round
	infoRows  [][]model.PublicInfo

	evaluation *Evaluation
}

// NewExperiment prepares an empty accumulator. agentIDs and agentClasses
// are parallel and fix the canonical agent order for every round.
func NewExperiment(contribTokens, sanctionTokens int, agentIDs, agentClasses []string) *Experiment {
	return &Experiment{
		contribTokens:  contribTokens,
		sanctionTokens: sanctionTokens,
		agentIDs:       agentIDs,
		agentClasses:   agentClasses,
		numAgents:      -1,
	}
}

// Add records one round's infos, which must be in canonical agent order.
func (e *Experiment) Add(infos []model.PublicInfo, roundNr int) error {
	if roundNr != len(e.rounds) {
		return fmt.Errorf("round %d out of sequence: %d rounds recorded", roundNr, len(e.rounds))
	}
	if e.evaluation != nil {
		return fmt.Errorf("cannot add round %d: evaluation already computed", roundNr)
	}
	if e.numAgents >= 0 && e.numAgents != len(infos) {
		return fmt.Errorf("round %d has %d agents, previous rounds had %d", roundNr, len(infos), e.numAgents)
	}
	e.numAgents = len(infos)
	e.rounds = append(e.rounds, NewRound(infos, roundNr))
	e.infoRows = append(e.infoRows, infos)
	return nil
}

// Rounds returns the number of recorded rounds.
func (e *Experiment) Rounds() int { return len(e.rounds) }

// Round returns the statistics view of one recorded round.
func (e *Experiment) Round(roundNr int) *Round { return e.rounds[roundNr] }

func highContributor(in model.PublicInfo, maxContrib int) bool {
	return float64(in.Contribution) >= 3*float64(maxContrib)/4
}

func freeRider(in model.PublicInfo, maxContrib int) bool {
	return float64(in.Contribution) <= float64(maxContrib)/4
}

func punisher(in model.PublicInfo) bool {
	return in.Allegiance == model.Sanctioning && in.Sanctioning > 0
}

func nonPunisher(in model.PublicInfo) bool {
	return in.Allegiance == model.Sanctioning && in.Sanctioning == 0
}

func filterInfos(infos []model.PublicInfo, keep func(model.PublicInfo) bool) []model.PublicInfo {
	var out []model.PublicInfo
	for _, in := range infos {
		if keep(in) {
			out = append(out, in)
		}
	}
	return out
}

func meanOverallResult(infos []model.PublicInfo) float64 {
	if len(infos) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, in := range infos {
		sum += in.OverallResult
	}
	return sum / float64(len(infos))
}

// Evaluation computes (once) and returns the experiment statistics. It is
// an error to evaluate before any round has been recorded.
func (e *Experiment) Evaluation() (*Evaluation, error) {
	if e.evaluation != nil {
		return e.evaluation, nil
	}
	if len(e.rounds) == 0 {
		return nil, fmt.Errorf("nothing to evaluate: no rounds recorded")
	}

	nRounds := len(e.rounds)
	nAgents := float64(e.numAgents)
	maxContrib := float64(e.contribTokens)

	series := make(map[string][]float64, len(EvaluationKeys))
	for _, k := range EvaluationKeys {
		series[k] = make([]float64, nRounds)
	}

	for i, r := range e.rounds {
		si := r.Infos(model.Sanctioning)
		sfi := r.Infos(model.SanctionFree)

		hc := filterInfos(si, func(in model.PublicInfo) bool { return highContributor(in, e.contribTokens) })
		fr := filterInfos(sfi, func(in model.PublicInfo) bool { return freeRider(in, e.contribTokens) })
		p := filterInfos(hc, punisher)
		np := filterInfos(hc, nonPunisher)

		siRatio := float64(len(si)) / nAgents
		series[SIMembers][i] = siRatio
		series[SFIMembers][i] = 1 - siRatio

		series[AvContribSI][i] = groupContribRatio(si, maxContrib)
		series[AvContribSFI][i] = groupContribRatio(sfi, maxContrib)

		series[HighContributors][i] = float64(len(hc)) / nAgents
		series[FreeRiders][i] = float64(len(fr)) / nAgents
		series[PayoffHC][i] = meanOverallResult(hc)
		series[PayoffFR][i] = meanOverallResult(fr)

		if len(si) > 0 {
			series[NoPunishHC][i] = float64(len(np)) / float64(len(si))
			series[PunishHC][i] = float64(len(p)) / float64(len(si))
		} else {
			series[NoPunishHC][i] = math.NaN()
			series[PunishHC][i] = math.NaN()
		}
		series[PayoffNoPunishHC][i] = meanOverallResult(np)
		series[PayoffPunishHC][i] = meanOverallResult(p)
	}

	agents, classes, classOrder := e.agentEvaluation()
	e.evaluation = &Evaluation{
		Series:     series,
		Agents:     agents,
		Classes:    classes,
		AgentOrder: append([]string(nil), e.agentIDs...),
		ClassOrder: classOrder,
	}
	return e.evaluation, nil
}

func groupContribRatio(infos []model.PublicInfo, maxContrib float64) float64 {
	if len(infos) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, in := range infos {
		sum += float64(in.Contribution)
	}
	return sum / (maxContrib * float64(len(infos)))
}

// agentEvaluation builds the per-agent and per-class time series.
func (e *Experiment) agentEvaluation() (map[string]AgentSeries, map[string]ClassSeries, []string) {
	nRounds := len(e.infoRows)

	agents := make(map[string]AgentSeries, e.numAgents)
	ordered := make([]AgentSeries, e.numAgents)
	for a := 0; a < e.numAgents; a++ {
		s := AgentSeries{}
		for _, k := range AgentKeys {
			s[k] = make([]float64, nRounds)
		}
		for i := 0; i < nRounds; i++ {
			in := e.infoRows[i][a]
			si := 0.0
			if in.Allegiance == model.Sanctioning {
				si = 1.0
			}
			s[AgSI][i] = si
			s[AgSFI][i] = 1 - si
			s[AgPayoff][i] = in.OverallResult
			s[AgContrib][i] = float64(in.Contribution) / float64(e.contribTokens)
			s[AgSanct][i] = float64(in.Sanctioning) / float64(e.sanctionTokens)
			s[AgPunish][i] = float64(in.Punishments)
			s[AgCommend][i] = float64(in.Commendations)
		}
		ordered[a] = s
		agents[e.agentIDs[a]] = s
	}

	byClass := map[string][]AgentSeries{}
	var classOrder []string
	for a, class := range e.agentClasses {
		if _, ok := byClass[class]; !ok {
			classOrder = append(classOrder, class)
		}
		byClass[class] = append(byClass[class], ordered[a])
	}

	classes := make(map[string]ClassSeries, len(byClass))
	for class, members := range byClass {
		cs := ClassSeries{
			Mean:      map[string][]float64{},
			Deviation: map[string][]float64{},
		}
		for _, k := range AgentKeys {
			mean := make([]float64, nRounds)
			dev := make([]float64, nRounds)
			sample := make([]float64, len(members))
			for i := 0; i < nRounds; i++ {
				for m, s := range members {
					sample[m] = s[k][i]
				}
				mean[i] = stat.Mean(sample, nil)
				dev[i] = stat.PopStdDev(sample, nil)
			}
			cs.Mean[k] = mean
			cs.Deviation[k] = dev
		}
		classes[class] = cs
	}
	return agents, classes, classOrder
}
