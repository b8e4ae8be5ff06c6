package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Rounds != 30 || cfg.ContribTokens != 20 || cfg.SanctionTokens != 20 {
		t.Fatalf("default dimensions: %+v", cfg)
	}
	if cfg.GainFactor != 1.6 {
		t.Fatalf("default gain = %g", cfg.GainFactor)
	}
	if cfg.NumAgents() != 42 {
		t.Fatalf("default population = %d agents, want 42", cfg.NumAgents())
	}
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, `
title: Tiny run
seed: 7
rounds: 5
contribution_tokens: 10
sanction_tokens: 10
gain_factor: 1.4
population:
  - class: Random
    count: 3
  - class: EgoistPunisher
    count: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Title != "Tiny run" || cfg.Seed != 7 || cfg.Rounds != 5 {
		t.Fatalf("scenario header: %+v", cfg)
	}
	if cfg.GainFactor != 1.4 {
		t.Fatalf("gain = %g", cfg.GainFactor)
	}
	if cfg.NumAgents() != 5 {
		t.Fatalf("population = %d, want 5", cfg.NumAgents())
	}
	// Defaults fill what the file leaves out.
	if cfg.Experimenters != "N.N." {
		t.Fatalf("experimenters = %q", cfg.Experimenters)
	}
}

func TestLoadRejectsBadScenarios(t *testing.T) {
	cases := map[string]string{
		"zero rounds": "rounds: 0",
		"low gain":    "gain_factor: 1.0",
		"no agents":   "population: [{class: Random, count: 1}]",
		"bad count":   "population: [{class: Random, count: -2}]",
		"empty class": "population: [{class: \"  \", count: 4}]",
		"not yaml":    "rounds: [1,",
	}
	for name, body := range cases {
		if _, err := Load(writeScenario(t, body)); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
}
