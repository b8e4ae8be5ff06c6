// Package config loads experiment scenario files.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes one simulation scenario: the run header, the game
// parameters and the agent population.
type Config struct {
	Title         string `yaml:"title"`
	Experimenters string `yaml:"experimenters"`
	Description   string `yaml:"description"`

	Seed           int64   `yaml:"seed"`
	Rounds         int     `yaml:"rounds"`
	ContribTokens  int     `yaml:"contribution_tokens"`
	SanctionTokens int     `yaml:"sanction_tokens"`
	GainFactor     float64 `yaml:"gain_factor"`

	Population []PopulationSpec `yaml:"population"`
}

// PopulationSpec adds count agents of one class to the run.
type PopulationSpec struct {
	Class string `yaml:"class"`
	Count int    `yaml:"count"`
}

// Load reads the scenario at path. An empty path yields the default
// scenario.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("scenario: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("scenario: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Title:          "Public goods simulation",
		Experimenters:  "N.N.",
		Description:    "-",
		Seed:           1,
		Rounds:         30,
		ContribTokens:  20,
		SanctionTokens: 20,
		GainFactor:     1.6,
		Population: []PopulationSpec{
			{Class: "Random", Count: 2},
			{Class: "ModerateEgoist", Count: 10},
			{Class: "EgoistPunisher", Count: 10},
			{Class: "SimpleHeuristics", Count: 10},
			{Class: "SimpleHeuristicsPunisher", Count: 10},
		},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.Title = strings.TrimSpace(c.Title)
	c.Experimenters = strings.TrimSpace(c.Experimenters)
	c.Description = strings.TrimSpace(c.Description)
	if c.Title == "" {
		c.Title = "?"
	}
	if c.Experimenters == "" {
		c.Experimenters = "N.N."
	}
	if c.Description == "" {
		c.Description = "-"
	}
	kept := c.Population[:0]
	for _, p := range c.Population {
		p.Class = strings.TrimSpace(p.Class)
		if p.Count != 0 {
			kept = append(kept, p)
		}
	}
	c.Population = kept
}

func (c Config) Validate() error {
	if c.Rounds < 1 {
		return fmt.Errorf("rounds must be >= 1")
	}
	if c.ContribTokens < 1 {
		return fmt.Errorf("contribution_tokens must be >= 1")
	}
	if c.SanctionTokens < 1 {
		return fmt.Errorf("sanction_tokens must be >= 1")
	}
	if c.GainFactor <= 1.0 {
		return fmt.Errorf("gain_factor %g must be > 1.0", c.GainFactor)
	}
	if len(c.Population) == 0 {
		return fmt.Errorf("population must not be empty")
	}
	total := 0
	for _, p := range c.Population {
		if p.Class == "" {
			return fmt.Errorf("population class must not be empty")
		}
		if p.Count < 1 {
			return fmt.Errorf("population class %s count must be >= 1", p.Class)
		}
		total += p.Count
	}
	if total < 2 {
		return fmt.Errorf("population must hold at least two agents, got %d", total)
	}
	return nil
}

// NumAgents is the total population size.
func (c Config) NumAgents() int {
	total := 0
	for _, p := range c.Population {
		total += p.Count
	}
	return total
}
