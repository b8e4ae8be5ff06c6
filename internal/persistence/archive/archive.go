// Package archive stores completed runs on disk: one compressed
// chronicle file per run plus a SQLite index for listing and lookup.
package archive

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"publicgoods.sim/internal/sim/chronicle"
	"publicgoods.sim/internal/sim/model"
	"publicgoods.sim/internal/sim/stats"
)

// RunMeta is one indexed run.
type RunMeta struct {
	ID            string
	Title         string
	Experimenters string
	DateStamp     string
	Agents        int
	Rounds        int
	Path          string
	SavedAt       string
}

// RoundSummary is one round of a run as indexed: group sizes and mean
// contributions, queryable without decompressing the chronicle file.
// The mean contributions are NaN for a round in which the group was empty.
type RoundSummary struct {
	Round        int
	SIMembers    int
	SFIMembers   int
	AvContribSI  float64
	AvContribSFI float64
}

// Store is a run archive rooted at one directory.
type Store struct {
	dir string
	db  *sql.DB
}

// Open creates the archive directory if needed and opens its index.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty archive dir")
	}
	if err := os.MkdirAll(filepath.Join(dir, "runs"), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{dir: dir, db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			experimenters TEXT NOT NULL,
			date_stamp TEXT NOT NULL,
			agents INTEGER NOT NULL,
			rounds INTEGER NOT NULL,
			path TEXT NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_saved_at ON runs(saved_at);`,
		`CREATE TABLE IF NOT EXISTS round_summary (
			run_id TEXT NOT NULL REFERENCES runs(id),
			round INTEGER NOT NULL,
			si_members INTEGER NOT NULL,
			sfi_members INTEGER NOT NULL,
			avg_contrib_si REAL,
			avg_contrib_sfi REAL,
			PRIMARY KEY (run_id, round)
		);`,
	}
	for _, st := range stmts {
		if _, err := db.Exec(st); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes the chronicle to a compressed file under the archive
// and indexes it under a fresh run id.
func (s *Store) SaveRun(c *chronicle.Chronicles) (RunMeta, error) {
	setup := c.Setup()
	meta := RunMeta{
		ID:            uuid.NewString(),
		Title:         setup.Title,
		Experimenters: setup.Experimenters,
		DateStamp:     setup.DateStamp,
		Agents:        len(setup.Agents),
		Rounds:        len(c.Rounds()),
		SavedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	meta.Path = filepath.Join("runs", meta.ID+".chron.zst")

	if err := writeChronicleFile(filepath.Join(s.dir, meta.Path), meta.ID, c); err != nil {
		return RunMeta{}, err
	}
	if err := s.indexRun(meta, c); err != nil {
		return RunMeta{}, fmt.Errorf("index run %s: %w", meta.ID, err)
	}
	return meta, nil
}

func (s *Store) indexRun(meta RunMeta, c *chronicle.Chronicles) error {
	exp, err := c.Statistics()
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, title, experimenters, date_stamp, agents, rounds, path, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Title, meta.Experimenters, meta.DateStamp,
		meta.Agents, meta.Rounds, meta.Path, meta.SavedAt)
	if err != nil {
		return err
	}
	for r := 0; r < exp.Rounds(); r++ {
		round := exp.Round(r)
		_, err = tx.Exec(
			`INSERT INTO round_summary (run_id, round, si_members, sfi_members, avg_contrib_si, avg_contrib_sfi)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			meta.ID, r,
			len(round.Infos(model.Sanctioning)),
			len(round.Infos(model.SanctionFree)),
			nullableMean(round, model.Sanctioning),
			nullableMean(round, model.SanctionFree))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// nullableMean maps an empty group's NaN mean to NULL for storage.
func nullableMean(round *stats.Round, allegiance model.Allegiance) any {
	if len(round.Infos(allegiance)) == 0 {
		return nil
	}
	return round.Value(stats.MeanOf, allegiance, "contribution")
}

// LoadRun restores the chronicle of the identified run.
func (s *Store) LoadRun(id string) (*chronicle.Chronicles, error) {
	var path string
	err := s.db.QueryRow(`SELECT path FROM runs WHERE id = ?`, id).Scan(&path)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return readChronicleFile(filepath.Join(s.dir, path))
}

// ListRuns returns all indexed runs, most recently saved first.
func (s *Store) ListRuns() ([]RunMeta, error) {
	rows, err := s.db.Query(
		`SELECT id, title, experimenters, date_stamp, agents, rounds, path, saved_at
		 FROM runs ORDER BY saved_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunMeta
	for rows.Next() {
		var m RunMeta
		if err := rows.Scan(&m.ID, &m.Title, &m.Experimenters, &m.DateStamp,
			&m.Agents, &m.Rounds, &m.Path, &m.SavedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// RoundSummaries returns the indexed per-round figures of one run in round
// order, without touching the chronicle file.
func (s *Store) RoundSummaries(id string) ([]RoundSummary, error) {
	rows, err := s.db.Query(
		`SELECT round, si_members, sfi_members, avg_contrib_si, avg_contrib_sfi
		 FROM round_summary WHERE run_id = ? ORDER BY round`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoundSummary
	for rows.Next() {
		var (
			sum     RoundSummary
			si, sfi sql.NullFloat64
		)
		if err := rows.Scan(&sum.Round, &sum.SIMembers, &sum.SFIMembers, &si, &sfi); err != nil {
			return nil, err
		}
		sum.AvContribSI = math.NaN()
		if si.Valid {
			sum.AvContribSI = si.Float64
		}
		sum.AvContribSFI = math.NaN()
		if sfi.Valid {
			sum.AvContribSFI = sfi.Float64
		}
		out = append(out, sum)
	}
	if len(out) == 0 && rows.Err() == nil {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return out, rows.Err()
}
