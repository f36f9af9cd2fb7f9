package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/vocab-harvester/internal/service/vocabulary"
)

func newTagsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage tags",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tags with their entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			tags, err := a.Vocabulary.ListTags(cmd.Context())
			if err != nil {
				return err
			}
			return printTags(cmd.OutOrStdout(), tags)
		},
	}

	var description string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := vocabulary.CreateTagInput{Name: args[0]}
			if description != "" {
				in.Description = &description
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			tag, err := a.Vocabulary.CreateTag(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created tag %s\n", tag.Name)
			return err
		},
	}
	create.Flags().StringVar(&description, "description", "", "Tag description")

	cmd.AddCommand(list, create)
	return cmd
}
