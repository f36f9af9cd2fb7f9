package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/vocab-harvester/internal/service/vocabulary"
)

func newVocabCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Browse and edit the vocabulary",
	}
	cmd.AddCommand(
		newVocabListCmd(opts),
		newVocabDeleteCmd(opts),
		newVocabTagCmd(opts, true),
		newVocabTagCmd(opts, false),
	)
	return cmd
}

func newVocabListCmd(opts *rootOptions) *cobra.Command {
	var (
		search, pos, tag string
		difficulty       int
		limit, offset    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vocabulary entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := vocabulary.ListInput{Limit: limit, Offset: offset}
			if search != "" {
				in.Search = &search
			}
			if pos != "" {
				in.POS = &pos
			}
			if tag != "" {
				in.Tag = &tag
			}
			if cmd.Flags().Changed("difficulty") {
				in.Difficulty = &difficulty
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Vocabulary.List(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), res.Entries, res.TotalCount)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Match lemma or translation")
	cmd.Flags().StringVarP(&pos, "pos", "p", "", "Filter by part of speech")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Filter by tag")
	cmd.Flags().IntVarP(&difficulty, "difficulty", "d", 0, "Filter by difficulty 0-4")
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip the first N results")
	return cmd
}

func newVocabDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <lemma> <pos>",
		Short: "Remove an entry from the vocabulary",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keyArgs(args)
			if err != nil {
				return err
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Vocabulary.Delete(cmd.Context(), key); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
			return err
		},
	}
}

// newVocabTagCmd builds "tag" when add is true and "untag" otherwise.
func newVocabTagCmd(opts *rootOptions, add bool) *cobra.Command {
	use, short := "tag", "Attach a tag to an entry"
	if !add {
		use, short = "untag", "Detach a tag from an entry"
	}

	return &cobra.Command{
		Use:   use + " <lemma> <pos> <tag>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keyArgs(args[:2])
			if err != nil {
				return err
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			update := a.Vocabulary.AddTag
			if !add {
				update = a.Vocabulary.RemoveTag
			}
			entry, err := update(cmd.Context(), key, args[2])
			if err != nil {
				return err
			}
			return printEntry(cmd.OutOrStdout(), entry)
		},
	}
}
