// Package cli implements the harvester commands.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/vocab-harvester/internal/app"
	"github.com/heartmarshall/vocab-harvester/internal/config"
	"github.com/heartmarshall/vocab-harvester/internal/domain"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCmd builds the top-level command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Harvest German vocabulary from text",
		Long: "Reads German text, proposes unknown lemmas with a translation and lets you " +
			"accept or discard each one into your vocabulary.",
		Version:       app.BuildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: $CONFIG_PATH or ./config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at the configured level instead of warn")

	cmd.AddCommand(
		newProcessCmd(opts),
		newRetryCmd(opts),
		newPendingCmd(opts),
		newAddCmd(opts),
		newRecoverCmd(opts),
		newReviewCmd(opts),
		newAcceptCmd(opts),
		newDiscardCmd(opts),
		newVocabCmd(opts),
		newTagsCmd(opts),
		newStatsCmd(opts),
		newMigrateCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the command tree with ctx. Cancelling ctx stops a running
// batch; candidates left mid-fetch go back to NEW.
func Execute(ctx context.Context, args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.Load()
	}
	return config.LoadFile(o.configPath)
}

// openApp loads the config and builds the application. Logs go to the
// command's stderr; without --verbose only warnings and errors are shown.
func (o *rootOptions) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if !o.verbose {
		cfg.Log.Level = "warn"
	}
	logger := app.NewLogger(cfg.Log, cmd.ErrOrStderr())
	return app.Build(cmd.Context(), cfg, logger)
}

// keyArgs parses the "<lemma> <pos>" positional pair.
func keyArgs(args []string) (domain.Key, error) {
	key := domain.NewKey(args[0], domain.PartOfSpeech(args[1]))
	if err := key.Validate(); err != nil {
		return domain.Key{}, err
	}
	if key.POS == domain.PartOfSpeechOther && !strings.EqualFold(strings.TrimSpace(args[1]), string(domain.PartOfSpeechOther)) {
		return domain.Key{}, fmt.Errorf("unknown part of speech %q", args[1])
	}
	return key, nil
}
