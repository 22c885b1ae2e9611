// Package db persists recommendation runs and their ranked output in PostgreSQL.
package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/job-recommender/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// SaveRun inserts a run in the running state
func (db *DB) SaveRun(ctx context.Context, runID uuid.UUID, runStart time.Time, preferences types.UserPreferences) error {
	prefs, err := json.Marshal(preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO recommendation_runs (id, run_start, status, preferences)
		 VALUES ($1, $2, $3, $4)`,
		runID, runStart, RunStatusRunning, prefs,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// SaveRecommendations stores the ranked list of a run in one batch
func (db *DB) SaveRecommendations(ctx context.Context, runID uuid.UUID, ranked []types.ScoredPosting) error {
	if len(ranked) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, p := range ranked {
		args, err := recommendationArgs(runID, i+1, p)
		if err != nil {
			return err
		}
		batch.Queue(
			`INSERT INTO recommendations (run_id, rank, title, company, location, experience_level,
			   posted_at, posted_at_estimated, url, source, salary, job_type, score, breakdown, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			args...,
		)
	}

	br := db.pool.SendBatch(ctx, batch)
	for i := range ranked {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to save recommendation %d: %w", i+1, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to save recommendations: %w", err)
	}

	log.Printf("[DB] Saved %d recommendations for run %s", len(ranked), runID)
	return nil
}

// recommendationArgs flattens a posting into insert arguments. rank is 1-based.
func recommendationArgs(runID uuid.UUID, rank int, p types.ScoredPosting) ([]any, error) {
	breakdown, err := json.Marshal(p.ScoreBreakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal score breakdown: %w", err)
	}
	return []any{
		runID, rank, p.Title, p.Company, p.Location, string(p.ExperienceLevel),
		p.PostedAt, p.PostedAtEstimated, p.URL, p.Source, p.Salary, p.JobType,
		p.RecommendationScore, breakdown, p.Notes,
	}, nil
}

// CompleteRun records the final status and statistics of a run
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string, stats types.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE recommendation_runs
		 SET status = $1, stats = $2, ranked_count = $3, completed_at = NOW()
		 WHERE id = $4`,
		status, statsJSON, stats.Ranked, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to complete run: run %s not found", runID)
	}
	return nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	var prefs, stats []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, run_start, status, preferences, stats, ranked_count, created_at, completed_at
		 FROM recommendation_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.RunStart, &run.Status, &prefs, &stats, &run.RankedCount, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if err := json.Unmarshal(prefs, &run.Preferences); err != nil {
		return nil, fmt.Errorf("failed to decode preferences: %w", err)
	}
	if stats != nil {
		run.Stats = &types.RunStats{}
		if err := json.Unmarshal(stats, run.Stats); err != nil {
			return nil, fmt.Errorf("failed to decode stats: %w", err)
		}
	}
	return &run, nil
}

// ListRecommendations returns a run's stored recommendations in rank order
func (db *DB) ListRecommendations(ctx context.Context, runID uuid.UUID) ([]Recommendation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT rank, title, company, location, experience_level, posted_at, posted_at_estimated,
		        url, source, salary, job_type, score::float8, breakdown, notes
		 FROM recommendations WHERE run_id = $1 ORDER BY rank`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		r := Recommendation{RunID: runID}
		var level string
		var breakdown []byte
		if err := rows.Scan(&r.Rank, &r.Title, &r.Company, &r.Location, &level, &r.PostedAt, &r.PostedAtEstimated,
			&r.URL, &r.Source, &r.Salary, &r.JobType, &r.RecommendationScore, &breakdown, &r.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		r.ExperienceLevel = types.ExperienceLevel(level)
		if err := json.Unmarshal(breakdown, &r.ScoreBreakdown); err != nil {
			return nil, fmt.Errorf("failed to decode breakdown: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
