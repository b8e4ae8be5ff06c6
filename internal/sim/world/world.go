// Package world drives the simulation: the round state machine, the two
// institutions and the per-round anonymization of agent identities.
package world

import (
	"errors"
	"fmt"
	"math/rand"

	"publicgoods.sim/internal/sim/game"
	"publicgoods.sim/internal/sim/model"
	"publicgoods.sim/internal/sim/stats"
)

// Lifecycle precondition failures. All of them are fatal: a run that
// trips one cannot produce a trustworthy record.
var (
	ErrAlreadyStarted = errors.New("simulation has already started")
	ErrNotSetUp       = errors.New("simulation was never set up")
	ErrFinished       = errors.New("simulation has already finished")
)

// Agent is the behavioral unit the engine drives. One round asks an agent
// for three decisions in order; everything else on the interface is state
// the world and the institutions manage for it.
type Agent interface {
	// ID uniquely identifies the agent; ClassID groups agents of the
	// same strategy composition.
	ID() string
	ClassID() string

	// Info is the agent's mutable current-round record. The world and
	// the institutions write it; the agent must treat it as read-only.
	Info() *model.Info

	// History is the append-only sequence of past round records.
	History() []model.Info

	// Bind connects the agent to the world's read-only view before the
	// first round.
	Bind(w *Info)

	// CloseRound appends a copy of the current record to the history.
	CloseRound()

	// ChooseInstitution returns the institution the agent wants to join
	// this round.
	ChooseInstitution() model.Allegiance

	// Contribute returns the number of tokens, within [0, endowment],
	// the agent puts into the public pool.
	Contribute(endowment int) int

	// Sanction returns the positive and negative sanction maps, keyed
	// by anonymized peer index drawn from others, with a combined spend
	// of at most endowment tokens.
	Sanction(endowment int, others []int) (positive, negative map[int]int)
}

// Chronicles records the run for later evaluation and serialization. It
// is notified once after setup and once at the end of every round.
type Chronicles interface {
	SetupComplete(w *World) error
	RoundComplete() error
}

// Info is the read-only view of the world that agents and their
// strategies may consult. AnonymizedInfos and Statistics describe the
// previous round: they are snapshotted before any stage of the current
// round runs.
type Info struct {
	Game           *game.Game
	RoundNr        int
	MaxRounds      int
	NumAgents      int
	ContribTokens  int
	SanctionTokens int

	// AnonymizedInfos is in this round's shuffled order, so positions
	// cannot be correlated with agent identity across rounds.
	AnonymizedInfos []model.PublicInfo

	// Statistics answers queries over AnonymizedInfos.
	Statistics *stats.Round

	// Rand is the single shared randomness source of the simulation.
	// Strategies must draw from it rather than own a source, so a run
	// is reproducible from the seed alone.
	Rand *rand.Rand
}

// World owns the agents, the institutions and the round protocol.
type World struct {
	Info

	agents     []Agent
	anonymized []Agent
	anonIndex  map[Agent]int

	si  *sanctioningInstitution
	sfi *sanctionFreeInstitution

	chronicles Chronicles
}

// New creates an unconfigured world reporting to chron, with all
// randomness derived from seed.
func New(chron Chronicles, seed int64) *World {
	w := &World{
		Info: Info{
			RoundNr:    -1,
			Statistics: stats.NewRound(nil, -2),
			Rand:       rand.New(rand.NewSource(seed)),
		},
		anonIndex:  map[Agent]int{},
		chronicles: chron,
	}
	w.si = &sanctioningInstitution{institution{world: w}}
	w.sfi = &sanctionFreeInstitution{institution{world: w}}
	return w
}

// Setup binds agents, game and configuration to the world. It must be
// called exactly once, before Run.
func (w *World) Setup(agents []Agent, g *game.Game, maxRounds, contribTokens, sanctionTokens int) error {
	if w.RoundNr >= 0 {
		return ErrAlreadyStarted
	}
	if len(agents) < 2 {
		return fmt.Errorf("world setup: need at least two agents, got %d", len(agents))
	}
	if maxRounds < 1 {
		return fmt.Errorf("world setup: maxRounds %d must be at least 1", maxRounds)
	}
	if contribTokens < 1 {
		return fmt.Errorf("world setup: contribution endowment %d must be at least 1", contribTokens)
	}
	if sanctionTokens < 1 {
		return fmt.Errorf("world setup: sanction endowment %d must be at least 1", sanctionTokens)
	}

	w.Game = g
	w.agents = agents
	w.anonymized = append([]Agent(nil), agents...)
	w.NumAgents = len(agents)
	w.MaxRounds = maxRounds
	w.ContribTokens = contribTokens
	w.SanctionTokens = sanctionTokens
	w.RoundNr = -1

	for _, a := range w.agents {
		a.Bind(&w.Info)
	}
	if w.chronicles != nil {
		if err := w.chronicles.SetupComplete(w); err != nil {
			return fmt.Errorf("chronicles setup: %w", err)
		}
	}
	return nil
}

// Run executes exactly MaxRounds rounds. Any protocol violation aborts
// the run with a fatal error; a partially executed run is not usable.
func (w *World) Run() error {
	if w.NumAgents == 0 {
		return ErrNotSetUp
	}
	if w.RoundNr >= 0 {
		return ErrAlreadyStarted
	}
	for w.RoundNr < w.MaxRounds {
		if err := w.NextRound(); err != nil {
			return fmt.Errorf("round %d: %w", w.RoundNr, err)
		}
	}
	return nil
}

// NextRound runs one complete round: anonymization, institution choice,
// contribution and sanctioning, then history/chronicle bookkeeping. The
// first call on a set-up world starts the run at round 0.
func (w *World) NextRound() error {
	if w.NumAgents == 0 {
		return ErrNotSetUp
	}
	if w.RoundNr < 0 {
		w.RoundNr = 0
	}
	if w.RoundNr >= w.MaxRounds {
		return ErrFinished
	}

	// Fresh anonymization every round. The previous mapping is
	// discarded, so an anonymized index never identifies an agent
	// beyond the round it was assigned in.
	w.Rand.Shuffle(len(w.anonymized), func(i, j int) {
		w.anonymized[i], w.anonymized[j] = w.anonymized[j], w.anonymized[i]
	})
	w.anonIndex = make(map[Agent]int, len(w.anonymized))
	for i, a := range w.anonymized {
		w.anonIndex[a] = i
	}

	// Snapshot what agents are allowed to see during this round. The
	// records still hold last round's values at this point.
	w.AnonymizedInfos = make([]model.PublicInfo, len(w.anonymized))
	for i, a := range w.anonymized {
		w.AnonymizedInfos[i] = model.Public(*a.Info(), w.SanctionTokens)
	}
	w.Statistics = stats.NewRound(w.AnonymizedInfos, w.RoundNr-1)

	if err := w.institutionChoiceStage(); err != nil {
		return err
	}
	if err := w.si.contributionStage(); err != nil {
		return err
	}
	if err := w.sfi.contributionStage(); err != nil {
		return err
	}
	if err := w.si.sanctioningStage(); err != nil {
		return err
	}
	w.sfi.sanctioningStage()

	for _, a := range w.agents {
		a.CloseRound()
	}
	if w.chronicles != nil {
		if err := w.chronicles.RoundComplete(); err != nil {
			return fmt.Errorf("chronicles: %w", err)
		}
	}
	w.RoundNr++
	return nil
}

// institutionChoiceStage rebuilds both membership rosters from scratch.
func (w *World) institutionChoiceStage() error {
	w.si.members = w.si.members[:0]
	w.sfi.members = w.sfi.members[:0]
	for _, a := range w.agents {
		switch choice := a.ChooseInstitution(); choice {
		case model.Sanctioning:
			w.si.members = append(w.si.members, a)
			a.Info().Allegiance = model.Sanctioning
		case model.SanctionFree:
			w.sfi.members = append(w.sfi.members, a)
			a.Info().Allegiance = model.SanctionFree
		default:
			return fmt.Errorf("%w: agent %s chose %q", ErrInstitutionChoice, a.ID(), choice)
		}
	}
	return nil
}

// AnonymizedIndex returns the agent's position in this round's shuffled
// order.
func (w *World) AnonymizedIndex(a Agent) int {
	return w.anonIndex[a]
}

// Agents returns the canonical agent list in its stable order.
func (w *World) Agents() []Agent {
	return w.agents
}
