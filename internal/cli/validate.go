package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jlewallen/dimsum/internal/decode"
)

// ValidationResult holds the outcome of decoding one document file.
type ValidationResult struct {
	Valid        bool           `json:"valid"`
	Key          string         `json:"key,omitempty"`
	Components   []string       `json:"components,omitempty"`
	Unrecognized []string       `json:"unrecognized,omitempty"`
	Error        *FailureOutput `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Decode one serialized entity without a database",
		Long: `Decode a single serialized entity document from a file and report the
first problem found: a parse error, a malformed envelope field, or a
component whose document does not match its shape. Use "-" for stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("cannot read %s", path), err)
	}

	dec, err := decode.NewDecoder()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to create decoder", err)
	}

	d, err := dec.DecodeText(string(data))
	if err != nil {
		result := ValidationResult{
			Key: decode.KeyOf(err),
			Error: &FailureOutput{
				Key:     decode.KeyOf(err),
				Kind:    string(decode.Kind(err)),
				Path:    decode.Path(err),
				Message: err.Error(),
			},
		}
		cliErr := &CLIError{Code: result.Error.Kind, Message: err.Error()}
		if outErr := f.Report(result, cliErr, func(w io.Writer) {
			fmt.Fprintf(w, "✗ %s\n", err)
		}); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	tags := lo.Keys(d.Components)
	result := ValidationResult{
		Valid:        true,
		Key:          d.Entity.Key,
		Components:   sortedStrings(tags),
		Unrecognized: decode.Unrecognized(d.Components),
	}

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s decodes with %d component(s)\n", result.Key, len(result.Components))
		for _, tag := range result.Unrecognized {
			fmt.Fprintf(w, "  unrecognized: %s\n", tag)
		}
	})
}
