package schemas

import (
	"context"
)

// -- Store Interface --

// Store defines the persistent storage of step results. This abstraction
// keeps the runner and the report command independent of the database.
type Store interface {
	// SaveResults persists a batch of step results.
	SaveResults(ctx context.Context, results []StepResult) error
	// ResultsByRunID retrieves every result recorded for a run, oldest first.
	ResultsByRunID(ctx context.Context, runID string) ([]StepResult, error)
}

// -- Recorder Interface --

// Recorder receives step results as the suite executes.
type Recorder interface {
	Record(ctx context.Context, result StepResult) error
}
