// File: cmd/serve.go
package cmd

import (
	"context"
	"net"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agenda-bdd/internal/config"
	"github.com/xkilldash9x/agenda-bdd/internal/fixture"
	"github.com/xkilldash9x/agenda-bdd/internal/observability"
)

// newServeCmd creates the `serve` command, which hosts the bundled agenda
// application for local runs.
func newServeCmd(v *viper.Viper) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves a seeded agenda page to run the features against",
		Long: `Serves an in-memory agenda with --seed proposals at /agenda until
interrupted. POST /api/reset reseeds it between runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runServe(ctx, observability.GetLogger(), cfg, nil)
		},
	}

	flags := serveCmd.Flags()
	flags.String("addr", "127.0.0.1:8080", "Address to listen on")
	flags.Int("seed", 5, "Number of proposals on the agenda")
	flags.Bool("bookmarked", false, "Start with every proposal bookmarked")

	mustBindFlags(v, flags, map[string]string{
		"addr":       "fixture.addr",
		"seed":       "fixture.seed",
		"bookmarked": "fixture.bookmarked",
	})

	return serveCmd
}

// runServe seeds the catalogue and serves it until ctx is cancelled. A nil
// listener means listening on the configured address.
func runServe(ctx context.Context, logger *zap.Logger, cfg config.Interface, ln net.Listener) error {
	fx := cfg.Fixture()
	catalogue := fixture.NewCatalogue(fixture.Seed(fx.Seed, fx.Bookmarked)...)
	server := fixture.NewServer(catalogue, logger)

	if ln != nil {
		return server.Serve(ctx, ln)
	}
	return server.Run(ctx, fx.Addr)
}
