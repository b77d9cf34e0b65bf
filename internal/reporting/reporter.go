// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
)

// Reporter defines the interface for writing run results to an output.
type Reporter interface {
	// Write processes a single step result.
	Write(result schemas.StepResult) error
	// Close finalizes the report and closes any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// NopWriteCloser returns a WriteCloser whose Close leaves w open.
func NopWriteCloser(w io.Writer) io.WriteCloser {
	return &nopWriteCloser{w}
}

// New creates a new reporter for runID based on the specified format and output path.
func New(format, outputPath, runID string) (Reporter, error) {
	switch format {
	case "json", "text":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	return NewWithWriter(format, writer, runID)
}

// NewWithWriter creates a reporter that takes ownership of writer.
func NewWithWriter(format string, writer io.WriteCloser, runID string) (Reporter, error) {
	switch format {
	case "json":
		return NewJSONReporter(writer, runID), nil
	case "text":
		return NewTextReporter(writer, runID), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Summarize folds results into a run summary. The run is taken to start when
// its earliest step started and to last until its latest step finished.
func Summarize(runID string, results []schemas.StepResult) *schemas.RunSummary {
	summary := schemas.NewRunSummary(runID)
	scenarios := make(map[string]struct{})

	var end time.Time
	for _, r := range results {
		summary.Add(r)
		scenarios[r.Feature+"\x00"+r.Scenario] = struct{}{}

		started := r.FinishedAt.Add(-r.Duration)
		if summary.StartedAt.IsZero() || started.Before(summary.StartedAt) {
			summary.StartedAt = started
		}
		if r.FinishedAt.After(end) {
			end = r.FinishedAt
		}
	}
	summary.Scenarios = len(scenarios)
	if !end.IsZero() {
		summary.Duration = end.Sub(summary.StartedAt)
	}
	return summary
}
