package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/internal/service/harvest"
)

func newPendingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List candidates waiting for a decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			candidates, err := a.Harvest.ListPending(cmd.Context())
			if err != nil {
				return err
			}
			return printCandidates(cmd.OutOrStdout(), candidates)
		},
	}
}

func newRetryCmd(opts *rootOptions) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Fetch translations again for pending candidates that have none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var bar *progressBar
			if !quiet {
				bar = newProgressBar(cmd.ErrOrStderr())
				defer bar.stop()
			}

			summary, err := a.Harvest.RetryPending(cmd.Context(), bar.update)
			bar.stop()
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not draw the progress bar")
	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		translation string
		gender      string
	)

	cmd := &cobra.Command{
		Use:   "add <lemma> <pos>",
		Short: "Add a candidate by hand",
		Long: "Adds a word to the pending store without processing a text. With --translation it is " +
			"ready for a decision at once; without one the next retry fetches it.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keyArgs(args)
			if err != nil {
				return err
			}

			in := harvest.UpsertInput{Token: domain.Token{
				Surface:    args[0],
				Lemma:      key.Lemma,
				POS:        key.POS,
				Meaningful: true,
				Gender:     domain.ParseGender(gender),
			}}
			if translation != "" {
				in.Translation = &translation
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := a.Harvest.Upsert(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printCandidates(cmd.OutOrStdout(), []domain.PendingCandidate{*c})
		},
	}

	cmd.Flags().StringVar(&translation, "translation", "", "Translation to store with the candidate")
	cmd.Flags().StringVar(&gender, "gender", "", "Noun gender: Masc, Fem or Neut")
	return cmd
}

func newRecoverCmd(opts *rootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Reset candidates left TRANSLATING by an interrupted run",
		Long: "Puts candidates that have been TRANSLATING for longer than --older-than back to NEW " +
			"so `harvester retry` can fetch them. Do not run it while a batch is in progress.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			keys, err := a.Harvest.RecoverStale(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no stale candidates")
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "reset %d candidate(s): %s\n", len(keys), joinKeys(keys))
			return err
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 10*time.Minute, "Minimum time since the candidate was last seen")
	return cmd
}
