// File: cmd/report_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
	"github.com/xkilldash9x/agenda-bdd/internal/config"
)

func storedRuns() []schemas.StepResult {
	start := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	return []schemas.StepResult{
		{
			ID: "a-1", RunID: "run-a", Feature: "agenda.feature", Scenario: "Clearing bookmarks",
			Step: "we clear all bookmarks", Outcome: schemas.OutcomePassed,
			Duration: time.Second, FinishedAt: start.Add(time.Second),
		},
		{
			ID: "b-1", RunID: "run-b", Feature: "agenda.feature", Scenario: "Clearing bookmarks",
			Step: "we clear all bookmarks", Outcome: schemas.OutcomePassed,
			Duration: time.Second, FinishedAt: start.Add(time.Hour),
		},
		{
			ID: "b-2", RunID: "run-b", Feature: "agenda.feature", Scenario: "Clearing bookmarks",
			Step: "the agenda has 5 proposals", Outcome: schemas.OutcomeFailed,
			Error:    "expected the number of agenda proposals to be 5, got 4",
			Duration: time.Second, FinishedAt: start.Add(time.Hour + time.Second),
		},
	}
}

// resultsOnlyStore cannot name its latest run.
type resultsOnlyStore struct{ schemas.Store }

func TestRunReport(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewDefaultConfig()

	t.Run("text to stdout for an explicit run", func(t *testing.T) {
		provider := &mockProvider{store: &memoryStore{results: storedRuns()}}
		var out bytes.Buffer

		err := runReport(ctx, zaptest.NewLogger(t), cfg, "run-a", "", "text", provider, &out)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Run run-a\n")
		assert.Contains(t, out.String(), "Clearing bookmarks / we clear all bookmarks")
		assert.NotContains(t, out.String(), "the agenda has 5 proposals")
		assert.Equal(t, 1, provider.cleaned)
	})

	t.Run("latest run by default", func(t *testing.T) {
		provider := &mockProvider{store: &memoryStore{results: storedRuns()}}
		var out bytes.Buffer

		err := runReport(ctx, zaptest.NewLogger(t), cfg, "", "", "text", provider, &out)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Run run-b\n")
		assert.Contains(t, out.String(), "expected the number of agenda proposals to be 5, got 4")
		assert.Contains(t, out.String(), "2 steps, 1 scenarios: 1 passed, 1 failed")
	})

	t.Run("json to file", func(t *testing.T) {
		provider := &mockProvider{store: &memoryStore{results: storedRuns()}}
		path := filepath.Join(t.TempDir(), "report.json")
		var out bytes.Buffer

		err := runReport(ctx, zaptest.NewLogger(t), cfg, "run-b", path, "json", provider, &out)
		require.NoError(t, err)
		assert.Empty(t, out.String())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"run_id": "run-b"`)
		assert.Contains(t, string(data), `"outcome": "failed"`)
	})

	t.Run("unknown run", func(t *testing.T) {
		provider := &mockProvider{store: &memoryStore{results: storedRuns()}}
		err := runReport(ctx, zaptest.NewLogger(t), cfg, "run-z", "", "text", provider, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no results recorded for run run-z")
	})

	t.Run("unsupported format", func(t *testing.T) {
		provider := &mockProvider{store: &memoryStore{results: storedRuns()}}
		err := runReport(ctx, zaptest.NewLogger(t), cfg, "run-a", "", "sarif", provider, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format: sarif")
	})

	t.Run("store without latest run lookup", func(t *testing.T) {
		provider := &mockProvider{store: resultsOnlyStore{&memoryStore{}}}
		err := runReport(ctx, zaptest.NewLogger(t), cfg, "", "", "text", provider, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--run-id is required")
	})

	t.Run("provider failure", func(t *testing.T) {
		provider := &mockProvider{err: errors.New("database URL is not configured")}
		err := runReport(ctx, zaptest.NewLogger(t), cfg, "run-a", "", "text", provider, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize store")
	})
}

func TestReportCmd_RequiresDatabase(t *testing.T) {
	_, _, err := executeCommand(t, "report", "--run-id", "run-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is not configured (AGENDA_BDD_DATABASE_URL)")
}

func TestDefaultStoreProvider_BadURL(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.DatabaseCfg.URL = "not a postgres url ::"

	_, cleanup, err := NewStoreProvider().Create(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, cleanup)
	assert.Contains(t, err.Error(), "failed to connect to database")
}
