package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
)

// ErrNoRuns is returned when the results table holds no runs.
var ErrNoRuns = errors.New("no runs recorded")

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists step results in PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

var _ schemas.Store = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS step_results (
    id          TEXT PRIMARY KEY,
    run_id      TEXT NOT NULL,
    feature     TEXT NOT NULL,
    scenario    TEXT NOT NULL,
    step        TEXT NOT NULL,
    outcome     TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    duration_ns BIGINT NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS step_results_run_idx ON step_results (run_id, finished_at);
`

var stepResultColumns = []string{"id", "run_id", "feature", "scenario", "step", "outcome", "error", "duration_ns", "finished_at"}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the results table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveResults copies the results into step_results in a single transaction.
func (s *Store) SaveResults(ctx context.Context, results []schemas.StepResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	rows := make([][]interface{}, len(results))
	for i, r := range results {
		rows[i] = []interface{}{
			r.ID, r.RunID, r.Feature, r.Scenario, r.Step,
			string(r.Outcome), r.Error,
			int64(r.Duration),
			r.FinishedAt.UTC(),
		}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"step_results"}, stepResultColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy step results: %w", err)
	}
	if int(copyCount) != len(results) {
		return fmt.Errorf("mismatch in copied step results count: expected %d, got %d", len(results), copyCount)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Saved step results.", zap.Int("count", len(results)))
	return nil
}

// ResultsByRunID returns the results of one run in the order they finished.
func (s *Store) ResultsByRunID(ctx context.Context, runID string) ([]schemas.StepResult, error) {
	query := `
        SELECT id, feature, scenario, step, outcome, error, duration_ns, finished_at
        FROM step_results
        WHERE run_id = $1
        ORDER BY finished_at ASC;
    `
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query step results: %w", err)
	}
	defer rows.Close()

	var results []schemas.StepResult
	for rows.Next() {
		var (
			r          schemas.StepResult
			outcomeStr string
			durationNs int64
		)
		if err := rows.Scan(&r.ID, &r.Feature, &r.Scenario, &r.Step, &outcomeStr, &r.Error, &durationNs, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan step result row: %w", err)
		}
		r.RunID = runID
		r.Outcome = schemas.Outcome(outcomeStr)
		r.Duration = time.Duration(durationNs)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return results, nil
}

// LatestRunID returns the run whose last result finished most recently.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	query := `
        SELECT run_id
        FROM step_results
        ORDER BY finished_at DESC
        LIMIT 1;
    `
	var runID string
	if err := s.pool.QueryRow(ctx, query).Scan(&runID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoRuns
		}
		return "", fmt.Errorf("failed to query latest run: %w", err)
	}
	return runID, nil
}
