// Command inspect lists archived runs and prints the evaluation of a
// selected run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"publicgoods.sim/internal/persistence/archive"
	"publicgoods.sim/internal/sim/stats"
)

func main() {
	var (
		dir   = flag.String("dir", "./archive", "archive directory")
		runID = flag.String("run", "", "run id to evaluate (empty: list runs)")
		trace = flag.Bool("trace", false, "print the indexed per-round figures instead of the evaluation")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[inspect] ", log.LstdFlags)

	store, err := archive.Open(*dir)
	if err != nil {
		logger.Fatalf("open archive: %v", err)
	}
	defer store.Close()

	switch {
	case *runID == "":
		listRuns(store, logger)
	case *trace:
		traceRun(store, *runID, logger)
	default:
		showRun(store, *runID, logger)
	}
}

func listRuns(store *archive.Store, logger *log.Logger) {
	runs, err := store.ListRuns()
	if err != nil {
		logger.Fatalf("list runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("no archived runs")
		return
	}
	for _, m := range runs {
		fmt.Printf("%s  %-30s  %2d agents  %3d rounds  saved %s\n",
			m.ID, m.Title, m.Agents, m.Rounds, m.SavedAt)
	}
}

// traceRun reads only the sqlite index; the chronicle file stays closed.
func traceRun(store *archive.Store, runID string, logger *log.Logger) {
	summaries, err := store.RoundSummaries(runID)
	if err != nil {
		logger.Fatalf("round summaries: %v", err)
	}
	fmt.Println("round  SI  SFI  avg contrib SI  avg contrib SFI")
	for _, s := range summaries {
		fmt.Printf("%5d  %2d  %3d  %14.2f  %15.2f\n",
			s.Round, s.SIMembers, s.SFIMembers, s.AvContribSI, s.AvContribSFI)
	}
}

func showRun(store *archive.Store, runID string, logger *log.Logger) {
	chron, err := store.LoadRun(runID)
	if err != nil {
		logger.Fatalf("load run: %v", err)
	}
	setup := chron.Setup()
	fmt.Printf("%s (%s)\n", setup.Title, setup.DateStamp)
	fmt.Printf("%s: %s\n", setup.Experimenters, setup.Description)
	fmt.Printf("%s, %d agents, %d rounds, %d/%d tokens\n\n",
		setup.Game, len(setup.Agents), setup.NumberOfRounds,
		setup.ContribTokens, setup.SanctionTokens)

	eval, err := chron.Evaluation()
	if err != nil {
		logger.Fatalf("evaluation: %v", err)
	}
	last := setup.NumberOfRounds - 1
	for _, key := range stats.EvaluationKeys {
		series := eval.Series[key]
		fmt.Printf("%-55s first %8.3f  last %8.3f\n", key, series[0], series[last])
	}

	fmt.Println()
	for _, class := range eval.ClassOrder {
		cs := eval.Classes[class]
		payoff := cs.Mean[stats.AgPayoff]
		fmt.Printf("%-30s mean payoff: first %8.3f  last %8.3f\n",
			class, payoff[0], payoff[last])
	}
}
