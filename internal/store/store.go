// Package store keeps run summaries and surviving tracks in a SQLite
// database so results from many plates can be queried together.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ironsheep/organoid-tracker/internal/results"
)

// Run is one row of the runs table.
type Run struct {
	ID         string
	InputDir   string
	StartedAt  time.Time
	FinishedAt time.Time
	Images     int
	Detections int
	Tracks     int
}

// Store is a SQLite-backed track store.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if needed) the database at path and migrates it to the
// latest schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, log: logger}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun records a run and its rows in one transaction. Saving a run ID
// that already exists replaces it.
func (s *Store) SaveRun(ctx context.Context, run Run, rows []results.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, input_dir, started_at, finished_at, images, detections, tracks)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputDir,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Images, run.Detections, run.Tracks)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (
			run_id, seq, x1, y1, x2, y2, score,
			diameter_1_in_pixels, diameter_2_in_pixels, surface,
			image, well, t, processing_timestamp, x, y, particle
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		_, err := stmt.ExecContext(ctx,
			run.ID, i, r.X1, r.Y1, r.X2, r.Y2, float64(r.Score),
			r.Diameter1, r.Diameter2, r.Surface,
			r.Image, r.Well, r.T, r.ProcessingTimestamp, r.X, r.Y, r.Particle)
		if err != nil {
			return fmt.Errorf("failed to insert track row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	s.log.Debug("Run stored", "run_id", run.ID, "rows", len(rows))
	return nil
}

const runColumns = `run_id, input_dir, started_at, finished_at, images, detections, tracks`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (*Run, error) {
	var (
		run               Run
		started, finished string
	)
	if err := sc.Scan(&run.ID, &run.InputDir, &started, &finished, &run.Images, &run.Detections, &run.Tracks); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", started, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("invalid finished_at %q: %w", finished, err)
	}
	return &run, nil
}

// GetRun returns the run with the given ID, or sql.ErrNoRows.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return run, nil
}

// Runs lists stored runs, most recently started first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return out, nil
}

// Tracks returns the rows stored for a run, in their original order.
func (s *Store) Tracks(ctx context.Context, runID string) ([]results.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT x1, y1, x2, y2, score,
			diameter_1_in_pixels, diameter_2_in_pixels, surface,
			image, well, t, processing_timestamp, x, y, particle
		FROM tracks WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	out := make([]results.Record, 0)
	for rows.Next() {
		var (
			r     results.Record
			score float64
		)
		err := rows.Scan(&r.X1, &r.Y1, &r.X2, &r.Y2, &score,
			&r.Diameter1, &r.Diameter2, &r.Surface,
			&r.Image, &r.Well, &r.T, &r.ProcessingTimestamp, &r.X, &r.Y, &r.Particle)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		r.Score = float32(score)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracks: %w", err)
	}
	return out, nil
}

// WellSummary aggregates a run's tracks for one well.
type WellSummary struct {
	Well        string
	Particles   int
	Rows        int
	MeanSurface float64
}

// Wells summarises a run per well, ordered by well.
func (s *Store) Wells(ctx context.Context, runID string) ([]WellSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT well, COUNT(DISTINCT particle), COUNT(*), AVG(surface)
		FROM tracks WHERE run_id = ?
		GROUP BY well ORDER BY well`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wells: %w", err)
	}
	defer rows.Close()

	var out []WellSummary
	for rows.Next() {
		var w WellSummary
		if err := rows.Scan(&w.Well, &w.Particles, &w.Rows, &w.MeanSurface); err != nil {
			return nil, fmt.Errorf("failed to scan well summary: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
