// Package agent provides the concrete agents of the experiment. An agent
// is composed from three strategy parts, one per decision the world asks
// for: institution choice, contribution and sanctioning.
package agent

import (
	"fmt"

	"publicgoods.sim/internal/sim/model"
	"publicgoods.sim/internal/sim/world"
)

// Chooser decides which institution the agent joins for the next round.
type Chooser interface {
	ChooseInstitution(a *Agent) model.Allegiance
}

// Contributor decides how many of the endowed tokens go into the public
// pool.
type Contributor interface {
	Contribute(a *Agent, tokens int) int
}

// Sanctioner decides how the sanction endowment is spent on commending
// and punishing anonymized peers.
type Sanctioner interface {
	Sanction(a *Agent, tokens int, others []int) (positive, negative map[int]int)
}

// Agent carries the per-round record and the agent's history and
// delegates every decision to its strategy parts. It implements
// world.Agent.
type Agent struct {
	id      string
	classID string
	info    model.Info
	history []model.Info
	world   *world.Info

	chooser     Chooser
	contributor Contributor
	sanctioner  Sanctioner
}

func (a *Agent) ID() string      { return a.id }
func (a *Agent) ClassID() string { return a.classID }

func (a *Agent) Info() *model.Info     { return &a.info }
func (a *Agent) History() []model.Info { return a.history }
func (a *Agent) World() *world.Info    { return a.world }
func (a *Agent) Bind(w *world.Info)    { a.world = w }

// CloseRound archives the current record. The copy is immutable from
// here on.
func (a *Agent) CloseRound() {
	a.history = append(a.history, a.info.Clone())
}

func (a *Agent) ChooseInstitution() model.Allegiance {
	return a.chooser.ChooseInstitution(a)
}

func (a *Agent) Contribute(tokens int) int {
	return a.contributor.Contribute(a, tokens)
}

func (a *Agent) Sanction(tokens int, others []int) (positive, negative map[int]int) {
	return a.sanctioner.Sanction(a, tokens, others)
}

// lastRound is the agent's record from the previous round. It must only
// be called once at least one round has completed.
func (a *Agent) lastRound() model.Info {
	return a.history[len(a.history)-1]
}

// Registry numbers agents so every ID is unique within one experiment.
type Registry struct {
	next int
}

func NewRegistry() *Registry {
	return &Registry{next: 1}
}

// New composes an agent from the three strategy parts. The ID embeds the
// class so records stay readable without a lookup table.
func (r *Registry) New(classID string, ch Chooser, co Contributor, sa Sanctioner) *Agent {
	a := &Agent{
		id:          fmt.Sprintf("%04d.%s", r.next, classID),
		classID:     classID,
		info:        model.NewInfo(),
		chooser:     ch,
		contributor: co,
		sanctioner:  sa,
	}
	r.next++
	return a
}
