package results

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/programme-lv/perftester/internal/counters"
)

// globalCycle marks samples collected across the whole run.
const globalCycle = -1

const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	uuid        TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	test_name   TEXT NOT NULL,
	cycles      INTEGER NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	error_kind  TEXT,
	error_msg   TEXT
);
CREATE TABLE IF NOT EXISTS cycles (
	run_uuid TEXT NOT NULL REFERENCES runs(uuid) ON DELETE CASCADE,
	cycle    INTEGER NOT NULL,
	log      TEXT NOT NULL,
	PRIMARY KEY (run_uuid, cycle)
);
CREATE TABLE IF NOT EXISTS samples (
	run_uuid TEXT NOT NULL REFERENCES runs(uuid) ON DELETE CASCADE,
	cycle    INTEGER NOT NULL,
	counter  TEXT NOT NULL,
	seq      INTEGER NOT NULL,
	value    REAL NOT NULL,
	PRIMARY KEY (run_uuid, cycle, counter, seq)
);
`

// History keeps every run in a SQLite database.
type History struct {
	db      *sql.DB
	runUuid string
	cycle   int
}

// OpenHistory opens or creates the database at path. ":memory:" is
// accepted for tests.
func OpenHistory(path string) (*History, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive between calls
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) Start(info RunInfo) error {
	h.runUuid = info.RunUuid
	h.cycle = 0
	_, err := h.db.Exec(
		`INSERT INTO runs (uuid, title, test_name, cycles, started_at) VALUES (?, ?, ?, ?, ?)`,
		info.RunUuid, info.Title, info.TestName, info.Cycles, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func (h *History) Record(logContent string, series counters.Series) error {
	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO cycles (run_uuid, cycle, log) VALUES (?, ?, ?)`,
		h.runUuid, h.cycle, logContent); err != nil {
		return fmt.Errorf("failed to insert cycle %d: %w", h.cycle, err)
	}
	if err := insertSamples(tx, h.runUuid, h.cycle, series); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	h.cycle++
	return nil
}

func (h *History) RecordGlobal(series counters.Series) error {
	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertSamples(tx, h.runUuid, globalCycle, series); err != nil {
		return err
	}
	return tx.Commit()
}

func (h *History) Finish(runErr error) error {
	var kind, msg sql.NullString
	if runErr != nil {
		kind = sql.NullString{String: ErrorKind(runErr), Valid: true}
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	_, err := h.db.Exec(`UPDATE runs SET finished_at = ?, error_kind = ?, error_msg = ? WHERE uuid = ?`,
		time.Now().UTC(), kind, msg, h.runUuid)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// Samples returns the values of counter recorded in the given cycle of a
// run; cycle -1 selects the global counters.
func (h *History) Samples(runUuid string, cycle int, counter string) ([]float64, error) {
	rows, err := h.db.Query(
		`SELECT value FROM samples WHERE run_uuid = ? AND cycle = ? AND counter = ? ORDER BY seq`,
		runUuid, cycle, counter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// RunSummary is one row of the run history.
type RunSummary struct {
	Uuid      string
	Title     string
	TestName  string
	Cycles    int
	Completed int
	StartedAt time.Time
	ErrorKind string
}

// Runs lists the most recent runs first.
func (h *History) Runs(limit int) ([]RunSummary, error) {
	rows, err := h.db.Query(`
		SELECT r.uuid, r.title, r.test_name, r.cycles, r.started_at, COALESCE(r.error_kind, ''),
		       (SELECT COUNT(*) FROM cycles c WHERE c.run_uuid = r.uuid)
		FROM runs r ORDER BY r.started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.Uuid, &s.Title, &s.TestName, &s.Cycles, &s.StartedAt, &s.ErrorKind, &s.Completed); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func insertSamples(tx *sql.Tx, runUuid string, cycle int, series counters.Series) error {
	stmt, err := tx.Prepare(`INSERT INTO samples (run_uuid, cycle, counter, seq, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for name, values := range series {
		for i, v := range values {
			if _, err := stmt.Exec(runUuid, cycle, name, i, v); err != nil {
				return fmt.Errorf("failed to insert sample %s[%d]: %w", name, i, err)
			}
		}
	}
	return nil
}
