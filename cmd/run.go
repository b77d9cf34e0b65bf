// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
	"github.com/xkilldash9x/agenda-bdd/internal/config"
	"github.com/xkilldash9x/agenda-bdd/internal/observability"
	"github.com/xkilldash9x/agenda-bdd/internal/reporting"
	"github.com/xkilldash9x/agenda-bdd/internal/suite"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd(v *viper.Viper, provider storeProvider) *cobra.Command {
	var stepTexts []string

	runCmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Runs the agenda features against the configured site",
		Long: `Runs Gherkin feature files against the agenda page at --base-url. With no
paths the bundled features are used. With --step the given step texts are run
in order as a single ad hoc scenario instead of any feature file.

Results are persisted when database.url (AGENDA_BDD_DATABASE_URL) is set.`,
		Example: `  agenda-bdd run --base-url http://127.0.0.1:8080 --driver static
  agenda-bdd run features/ --tags @bookmarks --format progress
  agenda-bdd run --step "we clear all bookmarks" --step "the agenda has 5 proposals"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.SetSuitePaths(args)
			}
			return runSuite(ctx, observability.GetLogger(), cfg, stepTexts, provider, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := runCmd.Flags()
	flags.String("base-url", "http://localhost:8080", "Base URL of the site hosting the agenda")
	flags.String("driver", config.DriverChromedp, "Page driver: chromedp or static")
	flags.String("tags", "", "Tag expression selecting scenarios (e.g. '@bookmarks && ~@slow')")
	flags.String("format", "pretty", "godog output format (pretty, progress, cucumber, junit)")
	flags.Int("concurrency", 1, "Number of scenarios run in parallel")
	flags.Bool("strict", true, "Fail the run on undefined or pending steps")
	flags.Bool("headless", true, "Run the browser without a window")
	flags.StringArrayVar(&stepTexts, "step", nil, "Step text to run directly; repeat for several steps")

	mustBindFlags(v, flags, map[string]string{
		"base-url":    "agenda.base_url",
		"driver":      "agenda.driver",
		"tags":        "suite.tags",
		"format":      "suite.format",
		"concurrency": "suite.concurrency",
		"strict":      "suite.strict",
		"headless":    "browser.headless",
	})

	return runCmd
}

// runSuite contains the core, testable logic of the `run` command.
func runSuite(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	stepTexts []string,
	provider storeProvider,
	stdout, stderr io.Writer,
) error {
	opts := []suite.Option{suite.WithOutput(stdout)}

	if cfg.Database().URL != "" {
		storeService, cleanup, err := provider.Create(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		if cleanup != nil {
			defer cleanup()
		}
		opts = append(opts, suite.WithStore(storeService))
	}

	runner := suite.NewRunner(cfg, logger, opts...)

	var (
		summary *schemas.RunSummary
		err     error
	)
	if len(stepTexts) > 0 {
		summary, err = runner.RunSteps(ctx, stepTexts)
	} else {
		summary, err = runner.Run(ctx)
	}

	if summary != nil {
		fmt.Fprintf(stderr, "Run %s: %s\n", runner.RunID(), reporting.FormatSummary(summary))
	}
	return err
}
