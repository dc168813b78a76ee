// Package store handles SQLite persistence of replay runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/verte-zerg/ghosttype/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store wraps SQLite access for run data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			target TEXT NOT NULL,
			wpm REAL NOT NULL,
			settings TEXT NOT NULL,
			seed INTEGER NOT NULL,
			text_length INTEGER NOT NULL,
			events INTEGER NOT NULL,
			consumed INTEGER NOT NULL,
			deletes INTEGER NOT NULL,
			planned_ms REAL NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			status TEXT NOT NULL,
			error_detail TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_char_stats (
			run_id TEXT NOT NULL,
			char TEXT NOT NULL,
			typed INTEGER NOT NULL,
			deleted INTEGER NOT NULL,
			PRIMARY KEY (run_id, char)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a finished run and its per-character counts. An empty
// ID is replaced with a fresh uuid, which is returned.
func (s *Store) InsertRun(ctx context.Context, run model.RunStats, chars []model.RunCharStats) (id string, err error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	settings, err := json.Marshal(run.Settings)
	if err != nil {
		return "", fmt.Errorf("failed to encode settings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, ended_at, target, wpm, settings, seed, text_length, events, consumed, deletes, planned_ms, elapsed_ms, status, error_detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.EndedAt.UTC().Format(time.RFC3339Nano),
		run.Target,
		run.Settings.WPM,
		string(settings),
		run.Seed,
		run.TextLength,
		run.Events,
		run.Consumed,
		run.Deletes,
		run.PlannedMs,
		run.ElapsedMs,
		string(run.Status),
		run.ErrorDetail,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	if len(chars) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO run_char_stats (run_id, char, typed, deleted) VALUES (?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return "", fmt.Errorf("failed to prepare char stats: %w", err)
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, cs := range chars {
			if _, err = stmt.ExecContext(ctx, run.ID, cs.Char, cs.Typed, cs.Deleted); err != nil {
				return "", fmt.Errorf("failed to insert char stats: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.ID, nil
}

// GetRun returns one run with its settings snapshot.
func (s *Store) GetRun(ctx context.Context, id string) (model.RunStats, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, ended_at, target, settings, seed, text_length, events, consumed, deletes, planned_ms, elapsed_ms, status, error_detail
		 FROM runs WHERE id = ?`, id)
	var (
		run                model.RunStats
		startedAt, endedAt string
		settings, status   string
	)
	err := row.Scan(&run.ID, &startedAt, &endedAt, &run.Target, &settings, &run.Seed, &run.TextLength,
		&run.Events, &run.Consumed, &run.Deletes, &run.PlannedMs, &run.ElapsedMs, &status, &run.ErrorDetail)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunStats{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.RunStats{}, fmt.Errorf("failed to read run: %w", err)
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return model.RunStats{}, fmt.Errorf("failed to parse started_at: %w", err)
	}
	if run.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		return model.RunStats{}, fmt.Errorf("failed to parse ended_at: %w", err)
	}
	if err := json.Unmarshal([]byte(settings), &run.Settings); err != nil {
		return model.RunStats{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	run.Status = model.RunStatus(status)
	return run, nil
}

// ListRuns returns run aggregates in chronological order. Last keeps only
// the most recent N after the other filters apply.
func (s *Store) ListRuns(ctx context.Context, filter model.HistoryFilter) ([]model.RunAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Target != "" {
		clauses = append(clauses, "target = ?")
		args = append(args, filter.Target)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	limit := -1
	if filter.Last > 0 {
		limit = filter.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT * FROM (
		SELECT id, ended_at, target, wpm, text_length, events, consumed, deletes, planned_ms, elapsed_ms, status
		FROM runs
		WHERE %s
		ORDER BY ended_at DESC
		LIMIT ?
	) ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunAggregate
	for rows.Next() {
		var agg model.RunAggregate
		var endedAt, status string
		if err := rows.Scan(&agg.ID, &endedAt, &agg.Target, &agg.WPM, &agg.TextLength, &agg.Events,
			&agg.Consumed, &agg.Deletes, &agg.PlannedMs, &agg.ElapsedMs, &status); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ended_at: %w", err)
		}
		agg.EndedAt = parsed
		agg.Status = model.RunStatus(status)
		runs = append(runs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// ListRunChars returns the per-character counts of one run ordered by char.
func (s *Store) ListRunChars(ctx context.Context, id string) ([]model.RunCharStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT char, typed, deleted FROM run_char_stats WHERE run_id = ? ORDER BY char`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query char stats: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.RunCharStats
	for rows.Next() {
		var cs model.RunCharStats
		if err := rows.Scan(&cs.Char, &cs.Typed, &cs.Deleted); err != nil {
			return nil, fmt.Errorf("failed to scan char stats: %w", err)
		}
		result = append(result, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate char stats: %w", err)
	}
	return result, nil
}

// AggregateChars sums per-character counts across runs.
func (s *Store) AggregateChars(ctx context.Context, runIDs []string) ([]model.RunCharStats, error) {
	if len(runIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(runIDs))
	args := make([]any, len(runIDs))
	for i, id := range runIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT char, SUM(typed) AS typed, SUM(deleted) AS deleted
		FROM run_char_stats
		WHERE run_id IN (%s)
		GROUP BY char
		ORDER BY char`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate char stats: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.RunCharStats
	for rows.Next() {
		var cs model.RunCharStats
		if err := rows.Scan(&cs.Char, &cs.Typed, &cs.Deleted); err != nil {
			return nil, fmt.Errorf("failed to scan char stats: %w", err)
		}
		result = append(result, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate char stats: %w", err)
	}
	return result, nil
}
