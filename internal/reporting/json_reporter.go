// internal/reporting/json_reporter.go
package reporting

import (
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RunReport is the document written by the JSON reporter.
type RunReport struct {
	Summary *schemas.RunSummary  `json:"summary"`
	Results []schemas.StepResult `json:"results"`
}

// JSONReporter buffers results and writes a single RunReport on Close.
// It is thread safe.
type JSONReporter struct {
	writer  io.WriteCloser
	runID   string
	mu      sync.Mutex
	results []schemas.StepResult
	closed  bool
}

// NewJSONReporter creates a JSON reporter that takes ownership of writer.
func NewJSONReporter(writer io.WriteCloser, runID string) *JSONReporter {
	return &JSONReporter{writer: writer, runID: runID, results: []schemas.StepResult{}}
}

// Write buffers a result.
func (r *JSONReporter) Write(result schemas.StepResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("json reporter is closed")
	}
	r.results = append(r.results, result)
	return nil
}

// Close writes the report and closes the writer.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	report := RunReport{
		Summary: Summarize(r.runID, r.results),
		Results: r.results,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		r.writer.Close()
		return fmt.Errorf("failed to encode run report: %w", err)
	}
	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		r.writer.Close()
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return r.writer.Close()
}
