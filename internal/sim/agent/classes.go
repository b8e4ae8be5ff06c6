package agent

import (
	"fmt"
	"sort"
)

// The experiment's standard agent classes, composed from the strategy
// parts in strategies.go.

func (r *Registry) NewRandom() *Agent {
	return r.New("Random", RandomChoice{}, RandomContribution{}, NoSanctions{})
}

func (r *Registry) NewModerateEgoist() *Agent {
	return r.New("ModerateEgoist", ProfitBasedChoice{}, ModerateEgoistContribution{}, NoSanctions{})
}

func (r *Registry) NewSimpleHeuristics() *Agent {
	return r.New("SimpleHeuristics", ProfitBasedChoice{}, SimpleHeuristicsContribution{}, NoSanctions{})
}

func (r *Registry) NewEgoistPunisher() *Agent {
	return r.New("EgoistPunisher", ProfitBasedChoice{}, ModerateEgoistContribution{}, StepwiseSanctions{})
}

func (r *Registry) NewSimpleHeuristicsPunisher() *Agent {
	return r.New("SimpleHeuristicsPunisher", ProfitBasedChoice{}, SimpleHeuristicsContribution{}, StepwiseSanctions{})
}

var classes = map[string]func(*Registry) *Agent{
	"Random":                   (*Registry).NewRandom,
	"ModerateEgoist":           (*Registry).NewModerateEgoist,
	"SimpleHeuristics":         (*Registry).NewSimpleHeuristics,
	"EgoistPunisher":           (*Registry).NewEgoistPunisher,
	"SimpleHeuristicsPunisher": (*Registry).NewSimpleHeuristicsPunisher,
}

// ClassNames lists the registered agent classes in stable order.
func ClassNames() []string {
	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewByClass builds an agent of the named class.
func (r *Registry) NewByClass(name string) (*Agent, error) {
	build, ok := classes[name]
	if !ok {
		return nil, fmt.Errorf("unknown agent class %q", name)
	}
	return build(r), nil
}
