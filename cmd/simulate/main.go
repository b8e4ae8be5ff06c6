// Command simulate runs one public goods experiment from a scenario
// file and archives the resulting chronicle.
package main

import (
	"flag"
	"log"
	"os"

	"publicgoods.sim/internal/config"
	"publicgoods.sim/internal/persistence/archive"
	"publicgoods.sim/internal/sim/agent"
	"publicgoods.sim/internal/sim/chronicle"
	"publicgoods.sim/internal/sim/game"
	"publicgoods.sim/internal/sim/stats"
	"publicgoods.sim/internal/sim/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "scenario yaml (empty: built-in default scenario)")
		outDir     = flag.String("out", "./archive", "archive directory for the finished run")
		seed       = flag.Int64("seed", 0, "override the scenario's random seed (0: keep)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[simulate] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load scenario: %v", err)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	logger.Printf("scenario %q: %d agents, %d rounds, gain=%g, seed=%d",
		cfg.Title, cfg.NumAgents(), cfg.Rounds, cfg.GainFactor, cfg.Seed)

	g, err := game.NewLinear(cfg.GainFactor)
	if err != nil {
		logger.Fatalf("game: %v", err)
	}

	registry := agent.NewRegistry()
	agents := make([]world.Agent, 0, cfg.NumAgents())
	for _, p := range cfg.Population {
		for i := 0; i < p.Count; i++ {
			a, err := registry.NewByClass(p.Class)
			if err != nil {
				logger.Fatalf("population: %v", err)
			}
			agents = append(agents, a)
		}
	}

	chron := chronicle.New(cfg.Title, cfg.Experimenters, cfg.Description)
	w := world.New(chron, cfg.Seed)
	if err := w.Setup(agents, g, cfg.Rounds, cfg.ContribTokens, cfg.SanctionTokens); err != nil {
		logger.Fatalf("setup: %v", err)
	}
	if err := w.Run(); err != nil {
		logger.Fatalf("run: %v", err)
	}
	logger.Printf("run complete: %d rounds", cfg.Rounds)

	eval, err := chron.Evaluation()
	if err != nil {
		logger.Fatalf("evaluation: %v", err)
	}
	last := cfg.Rounds - 1
	logger.Printf("final round: %.0f agents in SI, %.0f in SFI",
		eval.Series[stats.SIMembers][last]*float64(cfg.NumAgents()),
		eval.Series[stats.SFIMembers][last]*float64(cfg.NumAgents()))

	store, err := archive.Open(*outDir)
	if err != nil {
		logger.Fatalf("archive: %v", err)
	}
	defer store.Close()

	meta, err := store.SaveRun(chron)
	if err != nil {
		logger.Fatalf("archive run: %v", err)
	}
	logger.Printf("archived run %s at %s", meta.ID, meta.Path)
}
