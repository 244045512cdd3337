// Package rundb persists fit-run records to SQLite so repeated runs over
// the same terrain can be compared later. The schema is managed by
// embedded golang-migrate migrations.
package rundb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned by GetFitRun for an unknown run id.
var ErrRunNotFound = errors.New("rundb: fit run not found")

// DB wraps the SQLite connection holding fit-run history.
type DB struct {
	*sql.DB
}

// FitRun is one row of fit history: the inputs, the derived schedule
// parameters, and the outcome of a single DTM fit.
type FitRun struct {
	RunID            string
	SourcePath       string
	DestPath         string
	Width            int
	Height           int
	NoData           float64
	MinElevation     float64
	MaxElevation     float64
	Step             float64
	PyramidDepth     int
	DurationMs       int64
	CreatedUnixNanos int64
}

// Open opens (creating if needed) the run database at path and applies
// any pending migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run db: %w", err)
	}

	// Avoid transient lock errors when the CLI and a reader overlap.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	d := &DB{db}
	if err := d.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// migrateUp applies all pending embedded migrations. Already-current
// databases are not an error.
func (db *DB) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	// Note: we don't close m because it would close the underlying DB
	// connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// InsertFitRun records a completed fit. A missing RunID or timestamp is
// filled in before the insert.
func (db *DB) InsertFitRun(run *FitRun) error {
	if run == nil {
		return fmt.Errorf("insert fit run: nil run")
	}
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedUnixNanos == 0 {
		run.CreatedUnixNanos = time.Now().UnixNano()
	}

	_, err := db.Exec(`
		INSERT INTO fit_runs (
			run_id, source_path, dest_path, width, height,
			nodata_value, min_elevation, max_elevation, step,
			pyramid_depth, duration_ms, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.SourcePath, run.DestPath, run.Width, run.Height,
		run.NoData, run.MinElevation, run.MaxElevation, run.Step,
		run.PyramidDepth, run.DurationMs, run.CreatedUnixNanos)
	if err != nil {
		return fmt.Errorf("insert fit run %s: %w", run.RunID, err)
	}
	return nil
}

// GetFitRun loads a single run by id.
func (db *DB) GetFitRun(runID string) (*FitRun, error) {
	row := db.QueryRow(`
		SELECT run_id, source_path, dest_path, width, height,
		       nodata_value, min_elevation, max_elevation, step,
		       pyramid_depth, duration_ms, created_unix_nanos
		FROM fit_runs WHERE run_id = ?`, runID)

	var run FitRun
	err := row.Scan(&run.RunID, &run.SourcePath, &run.DestPath,
		&run.Width, &run.Height, &run.NoData,
		&run.MinElevation, &run.MaxElevation, &run.Step,
		&run.PyramidDepth, &run.DurationMs, &run.CreatedUnixNanos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fit run %s: %w", runID, err)
	}
	return &run, nil
}

// ListFitRuns returns the most recent runs, newest first.
func (db *DB) ListFitRuns(limit int) ([]FitRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT run_id, source_path, dest_path, width, height,
		       nodata_value, min_elevation, max_elevation, step,
		       pyramid_depth, duration_ms, created_unix_nanos
		FROM fit_runs ORDER BY created_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list fit runs: %w", err)
	}
	defer rows.Close()

	var runs []FitRun
	for rows.Next() {
		var run FitRun
		if err := rows.Scan(&run.RunID, &run.SourcePath, &run.DestPath,
			&run.Width, &run.Height, &run.NoData,
			&run.MinElevation, &run.MaxElevation, &run.Step,
			&run.PyramidDepth, &run.DurationMs, &run.CreatedUnixNanos); err != nil {
			return nil, fmt.Errorf("scan fit run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
