// Package store provides optional PostgreSQL persistence of pipeline runs.
// It is a run-history log beside the spreadsheet sink, not a second source
// of truth: rows are append-only and never reconciled.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/shorts-planner/internal/brief"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Store wraps a PostgreSQL connection pool
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the run-history tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS generation_runs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			video_id TEXT NOT NULL,
			model TEXT,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS briefs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			run_id UUID NOT NULL REFERENCES generation_runs(id),
			content JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// CreateRun records the start of a pipeline run and returns its ID
func (s *Store) CreateRun(ctx context.Context, videoID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO generation_runs (video_id, status)
		 VALUES ($1, $2)
		 RETURNING id`,
		videoID, StatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run as finished with the model that served it (empty
// when the run failed before any model answered).
func (s *Store) CompleteRun(ctx context.Context, runID uuid.UUID, status, model string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE generation_runs SET status = $1, model = NULLIF($2, ''), completed_at = NOW() WHERE id = $3`,
		status, model, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveBrief stores the finished brief for a run. Append-only; a re-run of
// the same video produces a second row by design.
func (s *Store) SaveBrief(ctx context.Context, runID uuid.UUID, b *brief.CreativeBrief) error {
	content, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal brief: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO briefs (run_id, content) VALUES ($1, $2)`,
		runID, content,
	)
	if err != nil {
		return fmt.Errorf("failed to save brief: %w", err)
	}
	return nil
}
