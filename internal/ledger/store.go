package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Status tracks a run through its lifecycle.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one composition attempt.
type Run struct {
	ID           int64
	FinalName    string
	BasePrompt   string
	Strategy     string
	Structure    string
	UnitCount    int
	TotalSeconds int
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Unit records the outcome of one clip session within a run.
type Unit struct {
	ID        int64
	RunID     int64
	Ordinal   int
	Label     string
	Prompt    string
	Seconds   int
	State     string
	RelPath   string
	Resumed   bool
	Elapsed   time.Duration
	CreatedAt time.Time
}

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return filepath.Clean(s.path)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a new run in the running state and returns it.
func (s *Store) BeginRun(ctx context.Context, run Run) (*Run, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            final_name, base_prompt, strategy, structure, unit_count,
            total_seconds, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.FinalName,
		run.BasePrompt,
		run.Strategy,
		nullableString(run.Structure),
		run.UnitCount,
		run.TotalSeconds,
		StatusRunning,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRun(ctx, id)
}

// RecordUnit persists the outcome of one unit session.
func (s *Store) RecordUnit(ctx context.Context, runID int64, unit Unit) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO run_units (
            run_id, ordinal, label, prompt, seconds, state,
            rel_path, resumed, elapsed_ms, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		unit.Ordinal,
		unit.Label,
		unit.Prompt,
		unit.Seconds,
		unit.State,
		nullableString(unit.RelPath),
		boolToInt(unit.Resumed),
		unit.Elapsed.Milliseconds(),
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert run unit: %w", err)
	}
	return nil
}

// CompleteRun marks a run as completed.
func (s *Store) CompleteRun(ctx context.Context, id int64) error {
	return s.finishRun(ctx, id, StatusCompleted, "")
}

// FailRun marks a run as failed with a message.
func (s *Store) FailRun(ctx context.Context, id int64, message string) error {
	return s.finishRun(ctx, id, StatusFailed, message)
}

func (s *Store) finishRun(ctx context.Context, id int64, status Status, message string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// GetRun fetches a run by identifier, or nil when absent.
func (s *Store) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunUnits returns the recorded unit outcomes for a run in ordinal order.
func (s *Store) RunUnits(ctx context.Context, runID int64) ([]*Unit, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+unitColumns+` FROM run_units WHERE run_id = ? ORDER BY ordinal`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run units: %w", err)
	}
	defer rows.Close()

	var units []*Unit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}
