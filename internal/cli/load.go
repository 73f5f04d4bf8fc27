package cli

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jlewallen/dimsum/internal/decode"
	"github.com/jlewallen/dimsum/internal/loader"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Workers  int
	FailFast bool
}

// FailureOutput is one failed entity in command output.
type FailureOutput struct {
	Key     string `json:"key"`
	GID     uint64 `json:"gid,omitempty"`
	Kind    string `json:"kind"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// LoadOutput is the load command's result.
type LoadOutput struct {
	RunID        string          `json:"run_id"`
	Processed    int             `json:"processed"`
	Failed       int             `json:"failed"`
	Aborted      bool            `json:"aborted,omitempty"`
	Tags         map[string]int  `json:"tags"`
	Unrecognized map[string]int  `json:"unrecognized"`
	Failures     []FailureOutput `json:"failures"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Decode every entity in a world database",
		Long: `Decode every persisted entity and report the ones that fail.

Rows are decoded in parallel. By default a failing entity is recorded and
the load continues; --fail-fast stops at the first failure.

Exit codes:
  0 - Every entity decoded
  1 - One or more entities failed to decode
  2 - Command error (database not found, etc.)

Examples:
  dimsum load --db world.sqlite3
  dimsum load --db world.sqlite3 --workers 8 --format json
  DIMSUM_FAIL_FAST=true dimsum load`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "parallel decoders (default $DIMSUM_WORKERS or 4)")
	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "stop at the first entity that fails")

	return cmd
}

// workers resolves the worker count from the flag, then the environment.
func (o *LoadOptions) workers(cmd *cobra.Command) int {
	if cmd.Flags().Changed("workers") || o.Config.Workers == 0 {
		return o.Workers
	}
	return o.Config.Workers
}

func (o *LoadOptions) failFast(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("fail-fast") {
		return o.FailFast
	}
	return o.FailFast || o.Config.FailFast
}

func runLoad(opts *LoadOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	st, err := opts.openExisting(f)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	total, err := st.CountRows(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "failed to count entities", err)
	}

	workers := opts.workers(cmd)
	f.VerboseLog("Loading %d entities with %d worker(s)", total, max(workers, 1))

	report, err := loader.Load(ctx, st, loader.Options{
		Workers:  workers,
		FailFast: opts.failFast(cmd),
		Logger:   opts.logger(cmd),
	})
	aborted := false
	if err != nil {
		if !decode.IsDecodeError(err) {
			return f.Fail(ExitCommandError, ErrCodeReadFailed, "failed to read entities", err)
		}
		aborted = true
	}

	out := loadOutput(report, aborted)

	var cliErr *CLIError
	if report.Failed > 0 {
		cliErr = &CLIError{
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("%d of %d entities failed to decode", report.Failed, report.Processed),
		}
	}

	if err := f.Report(out, cliErr, func(w io.Writer) { renderLoad(w, out) }); err != nil {
		return err
	}

	if cliErr != nil {
		return NewExitError(ExitFailure, cliErr.Message)
	}
	return nil
}

func loadOutput(report *loader.Report, aborted bool) LoadOutput {
	return LoadOutput{
		RunID:        report.RunID,
		Processed:    report.Processed,
		Failed:       report.Failed,
		Aborted:      aborted,
		Tags:         report.Tags,
		Unrecognized: report.Unrecognized,
		Failures: lo.Map(report.Failures, func(f loader.Failure, _ int) FailureOutput {
			return FailureOutput{
				Key:     f.Key,
				GID:     f.GID,
				Kind:    string(f.Kind),
				Path:    f.Path,
				Message: f.Message(),
			}
		}),
	}
}

func renderLoad(w io.Writer, out LoadOutput) {
	fmt.Fprintf(w, "Run %s\n", out.RunID)
	fmt.Fprintf(w, "Processed %d entities, %d failed\n", out.Processed, out.Failed)
	if out.Aborted {
		fmt.Fprintln(w, "Load aborted at the first failure")
	}

	for _, f := range out.Failures {
		fmt.Fprintf(w, "  ✗ %s %s\n", f.Key, f.Message)
	}

	if len(out.Tags) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Components:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	tags := lo.Keys(out.Tags)
	slices.Sort(tags)
	for _, tag := range tags {
		note := ""
		if out.Unrecognized[tag] > 0 {
			note = "(unrecognized)"
		}
		fmt.Fprintf(tw, "  %s\t%d\t%s\n", tag, out.Tags[tag], note)
	}
	tw.Flush()
}
