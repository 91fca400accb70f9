// Package history keeps test outcomes across runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/networkteam/go-sqllogger"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	environment TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	ended_at    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	status      TEXT NOT NULL,
	categories  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS results_name ON results(name);
`

// Outcome is one test result within a run.
type Outcome struct {
	Name       string
	Status     string
	Categories []string
	Duration   time.Duration
}

// Run is one suite execution.
type Run struct {
	ID          uuid.UUID
	Environment string
	Started     time.Time
	Ended       time.Time
	Results     []Outcome
}

// RecordedOutcome is an outcome together with the run it belongs to.
type RecordedOutcome struct {
	Outcome
	RunID   uuid.UUID
	Started time.Time
}

// RunSummary counts the outcomes of a run by status.
type RunSummary struct {
	ID          uuid.UUID
	Environment string
	Started     time.Time
	Ended       time.Time
	Counts      map[string]int
}

type Options struct {
	// Logger receives executed statements at debug level. Statements are not logged when nil.
	Logger *slog.Logger
}

type Store struct {
	db *sql.DB
}

// sqliteConnector opens connections with the mattn driver for a fixed DSN.
type sqliteConnector struct {
	driver *sqlite3.SQLiteDriver
	dsn    string
}

func (c *sqliteConnector) Connect(ctx context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c *sqliteConnector) Driver() driver.Driver {
	return c.driver
}

// Open opens or creates the database at path and applies the schema.
func Open(path string, options Options) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	var connector driver.Connector = &sqliteConnector{
		driver: &sqlite3.SQLiteDriver{},
		dsn:    "file:" + path + "?_foreign_keys=on&_busy_timeout=5000",
	}
	if options.Logger != nil {
		connector = sqllogger.LoggingConnector(newQueryLogger(options.Logger), connector)
	}

	db := sql.OpenDB(connector)
	if path == ":memory:" {
		// Every connection would see its own empty in-memory database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores the run and all of its outcomes atomically.
func (s *Store) RecordRun(ctx context.Context, run Run) (err error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.Must(uuid.NewV7())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, environment, started_at, ended_at) VALUES (?, ?, ?, ?)`,
		run.ID.String(), run.Environment, run.Started.UnixMilli(), run.Ended.UnixMilli(),
	); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, o := range run.Results {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO results (run_id, name, status, categories, duration_ms) VALUES (?, ?, ?, ?, ?)`,
			run.ID.String(), o.Name, o.Status, strings.Join(o.Categories, ","), o.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("inserting result %q: %w", o.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Recent returns the latest outcomes of the named test, newest first.
func (s *Store) Recent(ctx context.Context, name string, limit int) ([]RecordedOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, runs.started_at, r.name, r.status, r.categories, r.duration_ms
		FROM results r JOIN runs ON runs.id = r.run_id
		WHERE r.name = ?
		ORDER BY runs.started_at DESC, runs.id DESC
		LIMIT ?`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []RecordedOutcome
	for rows.Next() {
		var (
			runID      string
			startedMs  int64
			categories string
			durationMs int64
			o          RecordedOutcome
		)
		if err := rows.Scan(&runID, &startedMs, &o.Name, &o.Status, &categories, &durationMs); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		if o.RunID, err = uuid.FromString(runID); err != nil {
			return nil, fmt.Errorf("parsing run id: %w", err)
		}
		o.Started = time.UnixMilli(startedMs)
		o.Duration = time.Duration(durationMs) * time.Millisecond
		if categories != "" {
			o.Categories = strings.Split(categories, ",")
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// Flaky returns the names of tests that both passed and failed within the last runs runs.
func (s *Store) Flaky(ctx context.Context, runs int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM results
		WHERE run_id IN (SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?)
		GROUP BY name
		HAVING SUM(status = 'pass') > 0 AND SUM(status = 'fail') > 0
		ORDER BY name`, runs)
	if err != nil {
		return nil, fmt.Errorf("querying flaky tests: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning test name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Runs summarises the latest runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT runs.id, runs.environment, runs.started_at, runs.ended_at, r.status, COUNT(r.name)
		FROM (SELECT * FROM runs ORDER BY started_at DESC, id DESC LIMIT ?) runs
		LEFT JOIN results r ON r.run_id = runs.id
		GROUP BY runs.id, r.status
		ORDER BY runs.started_at DESC, runs.id DESC`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var (
			id        string
			env       string
			startedMs int64
			endedMs   int64
			status    sql.NullString
			count     int
		)
		if err := rows.Scan(&id, &env, &startedMs, &endedMs, &status, &count); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runID, err := uuid.FromString(id)
		if err != nil {
			return nil, fmt.Errorf("parsing run id: %w", err)
		}
		if len(summaries) == 0 || summaries[len(summaries)-1].ID != runID {
			summaries = append(summaries, RunSummary{
				ID:          runID,
				Environment: env,
				Started:     time.UnixMilli(startedMs),
				Ended:       time.UnixMilli(endedMs),
				Counts:      map[string]int{},
			})
		}
		if status.Valid {
			summaries[len(summaries)-1].Counts[status.String] = count
		}
	}
	return summaries, rows.Err()
}
