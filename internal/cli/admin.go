package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/vocab-harvester/internal/app"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vocabulary and pending counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Vocabulary.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), stats)
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			n, err := app.Migrate(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s) to %s\n", n, cfg.Database.Driver)
			return err
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := app.NewLogger(cfg.Log, cmd.ErrOrStderr())

			a, err := app.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Serve(cmd.Context())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "harvester %s\n", app.BuildVersion())
		},
	}
}
