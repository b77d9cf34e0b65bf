package schemas

import (
	"time"
)

// -- Step Result Schemas --

// Outcome is the classified result of a single executed step. The values are
// lowercase to align with the stored representation.
type Outcome string

// Constants defining every outcome a step can end in.
const (
	OutcomePassed    Outcome = "passed"    // The step ran and returned no error.
	OutcomeFailed    Outcome = "failed"    // An assertion inside the step did not hold.
	OutcomeErrored   Outcome = "errored"   // A collaborator (page, browser, network) raised an error.
	OutcomeSkipped   Outcome = "skipped"   // The step was not run because an earlier step did not pass.
	OutcomeUndefined Outcome = "undefined" // No definition matched the step text.
	OutcomePending   Outcome = "pending"   // The definition exists but is not implemented yet.
)

// Outcomes lists every outcome in reporting order.
var Outcomes = []Outcome{
	OutcomePassed,
	OutcomeFailed,
	OutcomeErrored,
	OutcomeSkipped,
	OutcomeUndefined,
	OutcomePending,
}

// Succeeded reports whether the outcome counts towards a green run.
func (o Outcome) Succeeded() bool {
	return o == OutcomePassed || o == OutcomeSkipped
}

// StepResult records the execution of one step within a scenario. It maps
// directly to the `step_results` table in the database.
type StepResult struct {
	ID       string  `json:"id"`       // Unique identifier for the result row.
	RunID    string  `json:"run_id"`   // The suite run that produced this result.
	Feature  string  `json:"feature"`  // URI of the feature file.
	Scenario string  `json:"scenario"` // Scenario name.
	Step     string  `json:"step"`     // Full step text, keyword excluded.
	Outcome  Outcome `json:"outcome"`

	// Error holds the rendered error for failed and errored steps.
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	FinishedAt time.Time     `json:"finished_at"`
}

// RunSummary aggregates the step results of a single run.
type RunSummary struct {
	RunID     string          `json:"run_id"`
	Steps     int             `json:"steps"`
	Scenarios int             `json:"scenarios"`
	Counts    map[Outcome]int `json:"counts"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}

// NewRunSummary returns an empty summary with every outcome counter present.
func NewRunSummary(runID string) *RunSummary {
	counts := make(map[Outcome]int, len(Outcomes))
	for _, o := range Outcomes {
		counts[o] = 0
	}
	return &RunSummary{RunID: runID, Counts: counts}
}

// Add folds a result into the summary.
func (s *RunSummary) Add(r StepResult) {
	s.Steps++
	s.Counts[r.Outcome]++
}

// Succeeded reports whether every recorded step succeeded.
func (s *RunSummary) Succeeded() bool {
	for o, n := range s.Counts {
		if n > 0 && !o.Succeeded() {
			return false
		}
	}
	return true
}
