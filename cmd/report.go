// File: cmd/report.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
	"github.com/xkilldash9x/agenda-bdd/internal/config"
	"github.com/xkilldash9x/agenda-bdd/internal/observability"
	"github.com/xkilldash9x/agenda-bdd/internal/reporting"
	"github.com/xkilldash9x/agenda-bdd/internal/store"
)

// storeProvider defines an interface for components that can create a data store
// (schemas.Store). This abstraction allows tests to inject a mock store instead
// of a live database connection.
type storeProvider interface {
	// Create initializes and returns a schemas.Store, a cleanup function to release
	// resources, and an error if the creation fails.
	Create(ctx context.Context, cfg config.Interface) (schemas.Store, func(), error)
}

// latestRunFinder is implemented by stores that can name their most recent run.
type latestRunFinder interface {
	LatestRunID(ctx context.Context) (string, error)
}

// defaultStoreProvider is the concrete implementation of storeProvider used in
// production. It establishes a real connection to the PostgreSQL database.
type defaultStoreProvider struct{}

// NewStoreProvider is a factory function that creates a new defaultStoreProvider.
func NewStoreProvider() storeProvider {
	return &defaultStoreProvider{}
}

// Create connects to the PostgreSQL database, makes sure the results table
// exists, and returns the store along with a cleanup function that closes the
// connection pool.
func (p *defaultStoreProvider) Create(ctx context.Context, cfg config.Interface) (schemas.Store, func(), error) {
	logger := observability.GetLogger()
	if cfg.Database().URL == "" {
		return nil, nil, fmt.Errorf("database URL is not configured (%s_DATABASE_URL)", envPrefix)
	}

	pool, err := pgxpool.New(ctx, cfg.Database().URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storeService, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to initialize store service: %w", err)
	}

	if err := storeService.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		logger.Debug("Database connection pool closed.")
	}
	return storeService, cleanup, nil
}

// newReportCmd creates and configures the `report` command.
func newReportCmd(provider storeProvider) *cobra.Command {
	var runID string
	var outputPath string
	var format string

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Renders the stored results of a run",
		Long: `Loads the step results of a run from the database and renders them as
text or JSON. Without --run-id the most recent run is reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			return runReport(ctx, logger, cfg, runID, outputPath, format, provider, cmd.OutOrStdout())
		},
	}

	reportCmd.Flags().StringVar(&runID, "run-id", "", "The run to report on (default: the latest run)")
	reportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path. If unset, the report is printed to stdout.")
	reportCmd.Flags().StringVarP(&format, "format", "f", "text", "Report format: text or json")

	return reportCmd
}

// runReport contains the core, testable logic for generating a report.
func runReport(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	runID, outputPath, format string,
	provider storeProvider,
	stdout io.Writer,
) error {
	storeService, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	if runID == "" {
		finder, ok := storeService.(latestRunFinder)
		if !ok {
			return errors.New("--run-id is required for this store")
		}
		if runID, err = finder.LatestRunID(ctx); err != nil {
			return fmt.Errorf("failed to find the latest run: %w", err)
		}
	}

	logger.Info("Generating report.", zap.String("run_id", runID), zap.String("format", format))

	results, err := storeService.ResultsByRunID(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load results of run %s: %w", runID, err)
	}
	if len(results) == 0 {
		return fmt.Errorf("no results recorded for run %s", runID)
	}

	var reporter reporting.Reporter
	if outputPath == "" {
		reporter, err = reporting.NewWithWriter(format, reporting.NopWriteCloser(stdout), runID)
	} else {
		reporter, err = reporting.New(format, outputPath, runID)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}

	for _, r := range results {
		if err := reporter.Write(r); err != nil {
			_ = reporter.Close()
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("failed to finalize report: %w", err)
	}

	if outputPath != "" {
		logger.Info("Report successfully written to file", zap.String("path", outputPath))
	}
	return nil
}
