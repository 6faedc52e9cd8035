// Package history persists run results to a local SQLite database so
// later invocations can query past outcomes, most importantly for flake
// detection across runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/attest/packages/core/runner"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	suite       TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS unit_results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	unit        TEXT NOT NULL,
	passed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	failures    BLOB
);

CREATE INDEX IF NOT EXISTS idx_unit_results_unit ON unit_results(unit);
CREATE INDEX IF NOT EXISTS idx_unit_results_run ON unit_results(run_id);
`

// Store is a handle to the run history database.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// failureRecord is the serialized form of one failure. It keeps the
// rendered strings only; typed payloads do not survive persistence.
type failureRecord struct {
	Kind    string `msgpack:"kind"`
	Message string `msgpack:"message"`
	Origin  string `msgpack:"origin,omitempty"`
}

// FlakyUnit summarizes a unit that both passed and failed across recent runs.
type FlakyUnit struct {
	Name     string
	Runs     int
	Passes   int
	Failures int
}

// FailRate is the fraction of non-skipped runs that failed.
func (f FlakyUnit) FailRate() float64 {
	if f.Runs == 0 {
		return 0
	}
	return float64(f.Failures) / float64(f.Runs)
}

// RunSummary is one recorded run.
type RunSummary struct {
	ID        string
	Suite     string
	StartedAt time.Time
	Duration  time.Duration
	Passed    int
	Failed    int
	Skipped   int
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{
		db:           db,
		queryTimeout: 30 * time.Second,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record persists a run result and its per-unit outcomes in one transaction.
func (s *Store) Record(result *runner.RunResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, suite, started_at, duration_ms, passed, failed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.Suite, time.Now().UTC(),
		result.Duration.Milliseconds(), result.Passed, result.Failed, result.Skipped)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	for _, r := range result.Results {
		var blob []byte
		if len(r.Failures) > 0 {
			records := make([]failureRecord, 0, len(r.Failures))
			for _, entry := range r.Failures {
				rec := failureRecord{Kind: entry.Kind, Message: entry.Err.Error()}
				if !entry.Origin.IsZero() {
					rec.Origin = entry.Origin.String()
				}
				records = append(records, rec)
			}
			blob, err = msgpack.Marshal(records)
			if err != nil {
				return fmt.Errorf("failed to encode failures for %s: %w", r.Name, err)
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO unit_results (run_id, unit, passed, skipped, duration_ms, failures)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			result.RunID, r.Name, r.Passed, r.Skipped, r.Duration.Milliseconds(), blob)
		if err != nil {
			return fmt.Errorf("failed to record unit %s: %w", r.Name, err)
		}
	}

	return tx.Commit()
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(limit int) ([]RunSummary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, suite, started_at, duration_ms, passed, failed, skipped
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.Suite, &r.StartedAt, &durationMs, &r.Passed, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FlakyUnits returns units that both passed and failed within the most
// recent `window` runs, worst offenders first. Skipped runs are ignored.
func (s *Store) FlakyUnits(window int) ([]FlakyUnit, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT unit,
		        COUNT(*)              AS runs,
		        SUM(passed)           AS passes,
		        COUNT(*) - SUM(passed) AS fails
		 FROM unit_results
		 WHERE skipped = 0
		   AND run_id IN (SELECT id FROM runs ORDER BY started_at DESC LIMIT ?)
		 GROUP BY unit
		 HAVING passes > 0 AND fails > 0
		 ORDER BY fails DESC, unit ASC`, window)
	if err != nil {
		return nil, fmt.Errorf("failed to query flaky units: %w", err)
	}
	defer rows.Close()

	var flaky []FlakyUnit
	for rows.Next() {
		var f FlakyUnit
		if err := rows.Scan(&f.Name, &f.Runs, &f.Passes, &f.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan flaky unit: %w", err)
		}
		flaky = append(flaky, f)
	}
	return flaky, rows.Err()
}

// Failures decodes the persisted failure records for one unit in one run.
func (s *Store) Failures(runID, unit string) ([]FailureRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT failures FROM unit_results WHERE run_id = ? AND unit = ?`,
		runID, unit).Scan(&blob)
	if err != nil {
		return nil, fmt.Errorf("failed to load failures: %w", err)
	}
	if len(blob) == 0 {
		return nil, nil
	}

	var records []failureRecord
	if err := msgpack.Unmarshal(blob, &records); err != nil {
		return nil, fmt.Errorf("failed to decode failures: %w", err)
	}

	out := make([]FailureRecord, len(records))
	for i, r := range records {
		out[i] = FailureRecord(r)
	}
	return out, nil
}

// FailureRecord is one decoded failure from a past run.
type FailureRecord struct {
	Kind    string
	Message string
	Origin  string
}
