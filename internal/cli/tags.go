package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jlewallen/dimsum/internal/decode"
	"github.com/jlewallen/dimsum/internal/schema"
)

// TagsOptions holds flags for the tags command.
type TagsOptions struct {
	*RootOptions
	Schema bool
}

// TagsOutput is the tags command's result.
type TagsOutput struct {
	Tags   []string `json:"tags"`
	Schema string   `json:"schema,omitempty"`
}

// NewTagsCommand creates the tags command.
func NewTagsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TagsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the component tags with a registered decoder",
		Long: `List the component tags this build decodes into typed components.
Tags found in stored entities but missing here decode as unrecognized.

With --schema, also print the CUE shapes each component is checked against.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTags(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Schema, "schema", false, "print the component shapes")

	return cmd
}

func runTags(opts *TagsOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	registry, err := decode.NewRegistry()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to build registry", err)
	}

	out := TagsOutput{Tags: registry.Tags()}
	if opts.Schema {
		out.Schema = schema.Source()
	}

	return f.Success(out, func(w io.Writer) {
		for _, tag := range out.Tags {
			fmt.Fprintln(w, tag)
		}
		if out.Schema != "" {
			fmt.Fprintln(w)
			fmt.Fprint(w, out.Schema)
		}
	})
}
