// internal/reporting/text_reporter.go
package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
)

// TextReporter writes one line per step as results arrive and a summary on Close.
type TextReporter struct {
	writer  io.WriteCloser
	runID   string
	mu      sync.Mutex
	results []schemas.StepResult
	started bool
	closed  bool
}

// NewTextReporter creates a text reporter that takes ownership of writer.
func NewTextReporter(writer io.WriteCloser, runID string) *TextReporter {
	return &TextReporter{writer: writer, runID: runID}
}

// Write prints the result line.
func (r *TextReporter) Write(result schemas.StepResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("text reporter is closed")
	}
	if err := r.header(); err != nil {
		return err
	}
	r.results = append(r.results, result)

	line := fmt.Sprintf("  %-11s %s / %s (%s)\n",
		"["+string(result.Outcome)+"]", result.Scenario, result.Step, result.Duration.Round(time.Millisecond))
	if result.Error != "" {
		line += "              " + result.Error + "\n"
	}
	_, err := io.WriteString(r.writer, line)
	return err
}

func (r *TextReporter) header() error {
	if r.started {
		return nil
	}
	r.started = true
	_, err := fmt.Fprintf(r.writer, "Run %s\n", r.runID)
	return err
}

// Close prints the summary line and closes the writer.
func (r *TextReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.header(); err != nil {
		r.writer.Close()
		return err
	}
	summary := Summarize(r.runID, r.results)
	if _, err := io.WriteString(r.writer, FormatSummary(summary)+"\n"); err != nil {
		r.writer.Close()
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return r.writer.Close()
}

// FormatSummary renders a summary as a single line, listing only the
// outcomes that occurred.
func FormatSummary(s *schemas.RunSummary) string {
	var parts []string
	for _, o := range schemas.Outcomes {
		if n := s.Counts[o]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, o))
		}
	}
	line := fmt.Sprintf("%d steps, %d scenarios", s.Steps, s.Scenarios)
	if len(parts) > 0 {
		line += ": " + strings.Join(parts, ", ")
	}
	return line + fmt.Sprintf(" in %s", s.Duration.Round(time.Millisecond))
}
