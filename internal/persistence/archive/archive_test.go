package archive

import (
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"publicgoods.sim/internal/sim/agent"
	"publicgoods.sim/internal/sim/chronicle"
	"publicgoods.sim/internal/sim/game"
	"publicgoods.sim/internal/sim/world"
)

func recordedRun(t *testing.T, title string) *chronicle.Chronicles {
	t.Helper()
	g, err := game.NewLinear(1.6)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}
	reg := agent.NewRegistry()
	agents := []world.Agent{
		reg.NewModerateEgoist(),
		reg.NewEgoistPunisher(),
		reg.NewSimpleHeuristicsPunisher(),
	}
	chron := chronicle.New(title, "N.N.", "archive test run")
	w := world.New(chron, 11)
	if err := w.Setup(agents, g, 3, 20, 20); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := w.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	return chron
}

func TestSaveAndLoadRun(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	chron := recordedRun(t, "Archived")
	meta, err := store.SaveRun(chron)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.ID == "" || meta.Agents != 3 || meta.Rounds != 3 {
		t.Fatalf("meta = %+v", meta)
	}

	restored, err := store.LoadRun(meta.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(restored.Setup(), chron.Setup()) {
		t.Fatal("setup changed in the archive")
	}
	if !reflect.DeepEqual(restored.Rounds(), chron.Rounds()) {
		t.Fatal("rounds changed in the archive")
	}
}

func TestRoundSummaries(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	chron := recordedRun(t, "Summaries")
	meta, err := store.SaveRun(chron)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	summaries, err := store.RoundSummaries(meta.ID)
	if err != nil {
		t.Fatalf("round summaries: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("indexed %d rounds, want 3", len(summaries))
	}
	for i, s := range summaries {
		if s.Round != i {
			t.Fatalf("summary %d holds round %d", i, s.Round)
		}
		if s.SIMembers+s.SFIMembers != 3 {
			t.Fatalf("round %d: %d+%d members, want 3", i, s.SIMembers, s.SFIMembers)
		}
		if s.SIMembers > 0 && (s.AvContribSI < 0 || s.AvContribSI > 20) {
			t.Fatalf("round %d: avg SI contribution %v out of range", i, s.AvContribSI)
		}
		if s.SFIMembers == 0 && !math.IsNaN(s.AvContribSFI) {
			t.Fatalf("round %d: empty SFI group has mean %v, want NaN", i, s.AvContribSFI)
		}
	}

	if _, err := store.RoundSummaries("no-such-run"); err == nil {
		t.Fatal("summaries found for unknown run")
	}
}

func TestLoadUnknownRun(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if _, err := store.LoadRun("no-such-run"); err == nil {
		t.Fatal("unknown run loaded")
	}
}

func TestListRuns(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if runs, err := store.ListRuns(); err != nil || len(runs) != 0 {
		t.Fatalf("fresh archive: runs=%v err=%v", runs, err)
	}

	first, err := store.SaveRun(recordedRun(t, "first"))
	if err != nil {
		t.Fatalf("save first: %v", err)
	}
	second, err := store.SaveRun(recordedRun(t, "second"))
	if err != nil {
		t.Fatalf("save second: %v", err)
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("listed %d runs, want 2", len(runs))
	}
	ids := map[string]bool{runs[0].ID: true, runs[1].ID: true}
	if !ids[first.ID] || !ids[second.ID] {
		t.Fatalf("listed ids %v, want %s and %s", ids, first.ID, second.ID)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// The index survives reopening.
	store, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	runs, err = store.ListRuns()
	if err != nil {
		t.Fatalf("list after reopen: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("listed %d runs after reopen, want 2", len(runs))
	}
	if _, err := store.LoadRun(first.ID); err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if filepath.Ext(runs[0].Path) != ".zst" {
		t.Fatalf("run path = %q, want a .zst file", runs[0].Path)
	}
}
