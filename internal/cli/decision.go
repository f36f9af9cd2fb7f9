package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/vocab-harvester/internal/domain"
	"github.com/heartmarshall/vocab-harvester/internal/service/promotion"
)

func newAcceptCmd(opts *rootOptions) *cobra.Command {
	var (
		tags        string
		difficulty  int
		translation string
	)

	cmd := &cobra.Command{
		Use:   "accept <lemma> <pos>",
		Short: "Move a candidate into the vocabulary",
		Example: `  harvester accept hund noun
  harvester accept laufen verb --translation "to run" --tags movement,a1 --difficulty 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keyArgs(args)
			if err != nil {
				return err
			}

			in := promotion.AcceptInput{Key: key}
			if cmd.Flags().Changed("tags") {
				in.Tags = domain.SplitTagList(tags)
			}
			if cmd.Flags().Changed("difficulty") {
				in.Difficulty = &difficulty
			}
			if cmd.Flags().Changed("translation") {
				in.Translation = &translation
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Promotion.Accept(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printAccept(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&tags, "tags", "t", "", "Comma-separated tags, replacing the proposed ones (empty for none)")
	cmd.Flags().IntVarP(&difficulty, "difficulty", "d", 0, "Difficulty 0-4 (default from config)")
	cmd.Flags().StringVar(&translation, "translation", "", "Override the fetched translation")
	return cmd
}

func newDiscardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "discard <lemma> <pos>",
		Short: "Drop a candidate without adding it to the vocabulary",
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

			if err := a.Promotion.Discard(cmd.Context(), key); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "discarded %s\n", key)
			return err
		},
	}
}

func printAccept(w io.Writer, res *promotion.AcceptResult) error {
	verb := "accepted"
	if res.Outcome == domain.OutcomeAlreadyExists {
		verb = "already in vocabulary:"
	}
	if _, err := fmt.Fprintf(w, "%s ", verb); err != nil {
		return err
	}
	return printEntry(w, res.Entry)
}
