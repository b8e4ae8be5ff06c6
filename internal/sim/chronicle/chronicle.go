// Package chronicle records a full experiment run: the setup, every
// agent's record for every round, and the statistics derived from them.
// A chronicle can be serialized to JSON and restored without loss.
package chronicle

import (
	"errors"
	"fmt"
	"time"

	"publicgoods.sim/internal/sim/model"
	"publicgoods.sim/internal/sim/stats"
	"publicgoods.sim/internal/sim/world"
)

var (
	ErrAlreadyConnected = errors.New("chronicle is already connected to a run")
	ErrNotConnected     = errors.New("chronicle was never connected to a run")
	ErrRunIncomplete    = errors.New("run has not completed all rounds")
)

// institutionNames is the fixed pair of institutions every run offers.
var institutionNames = []string{"SanctioningInstitution", "SanctionFreeInstitution"}

// Setup describes the experiment configuration as it is serialized. The
// key names are part of the chronicle file format.
type Setup struct {
	Title          string   `json:"Title"`
	DateStamp      string   `json:"Date Stamp"`
	Experimenters  string   `json:"Experimenters"`
	Description    string   `json:"Description"`
	Agents         []string `json:"Agents"`
	AgentClasses   []string `json:"Agent classes"`
	Game           string   `json:"Game"`
	Institutions   []string `json:"Institutions"`
	NumberOfRounds int      `json:"Number of Rounds"`
	ContribTokens  int      `json:"Tokens for Contribution"`
	SanctionTokens int      `json:"Tokens for Sanctioning"`
	BasicVariables []string `json:"Basic Variables"`
}

// Chronicles follows a run through the world's notifications and keeps
// the complete non-anonymized record. It implements world.Chronicles.
type Chronicles struct {
	setup     Setup
	connected bool

	world  *world.World
	rounds [][]model.Info
	stats  *stats.Experiment
}

// New creates an empty chronicle carrying the run's descriptive header.
func New(title, experimenters, description string) *Chronicles {
	return &Chronicles{
		setup: Setup{
			Title:         title,
			Experimenters: experimenters,
			Description:   description,
		},
	}
}

// SetupComplete captures the configuration of the world and prepares the
// statistics accumulator. The world calls it exactly once.
func (c *Chronicles) SetupComplete(w *world.World) error {
	if c.connected {
		return ErrAlreadyConnected
	}
	if w.RoundNr >= 0 {
		return fmt.Errorf("chronicle setup: run already started at round %d", w.RoundNr)
	}

	agents := w.Agents()
	ids := make([]string, len(agents))
	classes := make([]string, len(agents))
	for i, a := range agents {
		ids[i] = a.ID()
		classes[i] = a.ClassID()
	}

	c.connected = true
	c.world = w
	c.stats = stats.NewExperiment(w.ContribTokens, w.SanctionTokens, ids, classes)

	c.setup.DateStamp = time.Now().Format("2006-01-02 15:04")
	c.setup.Agents = ids
	c.setup.AgentClasses = classes
	c.setup.Game = w.Game.String()
	c.setup.Institutions = institutionNames
	c.setup.NumberOfRounds = w.MaxRounds
	c.setup.ContribTokens = w.ContribTokens
	c.setup.SanctionTokens = w.SanctionTokens
	c.setup.BasicVariables = model.FieldNames()
	return nil
}

// RoundComplete snapshots every agent's record in the canonical agent
// order and feeds the round into the statistics.
func (c *Chronicles) RoundComplete() error {
	if !c.connected || c.world == nil {
		return ErrNotConnected
	}
	w := c.world
	if w.RoundNr < 0 {
		return fmt.Errorf("chronicle: round reported before the run started")
	}

	agents := w.Agents()
	infos := make([]model.Info, len(agents))
	public := make([]model.PublicInfo, len(agents))
	for i, a := range agents {
		infos[i] = a.Info().Clone()
		public[i] = model.Public(infos[i], w.SanctionTokens)
	}
	c.rounds = append(c.rounds, infos)
	return c.stats.Add(public, w.RoundNr)
}

// Setup returns the recorded experiment configuration.
func (c *Chronicles) Setup() Setup {
	return c.setup
}

// Rounds returns the recorded per-round agent records, one slice per
// round in the canonical agent order.
func (c *Chronicles) Rounds() [][]model.Info {
	return c.rounds
}

// Statistics returns the experiment statistics accumulated so far.
func (c *Chronicles) Statistics() (*stats.Experiment, error) {
	if c.stats == nil {
		return nil, ErrNotConnected
	}
	return c.stats, nil
}

// Evaluation computes the experiment evaluation. The run must have
// completed every configured round.
func (c *Chronicles) Evaluation() (*stats.Evaluation, error) {
	if c.stats == nil {
		return nil, ErrNotConnected
	}
	if len(c.rounds) != c.setup.NumberOfRounds {
		return nil, fmt.Errorf("%w: recorded %d of %d rounds",
			ErrRunIncomplete, len(c.rounds), c.setup.NumberOfRounds)
	}
	return c.stats.Evaluation()
}
