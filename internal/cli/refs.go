package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jlewallen/dimsum/internal/decode"
	"github.com/jlewallen/dimsum/internal/loader"
	"github.com/jlewallen/dimsum/internal/refs"
	"github.com/jlewallen/dimsum/internal/store"
)

// RefsOptions holds flags for the refs command.
type RefsOptions struct {
	*RootOptions
	CacheSize int
}

// DanglingOutput is one reference whose target entity does not exist.
type DanglingOutput struct {
	From string `json:"from"`
	Path string `json:"path"`
	To   string `json:"to"`
	Name string `json:"name,omitempty"`
}

// RefsOutput is the refs command's result.
type RefsOutput struct {
	Entities   int              `json:"entities"`
	References int              `json:"references"`
	Skipped    int              `json:"skipped"`
	Dangling   []DanglingOutput `json:"dangling"`
}

// NewRefsCommand creates the refs command.
func NewRefsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RefsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "refs [key]",
		Short: "Find references to entities that do not exist",
		Long: `Check that every entity reference points at a stored entity.

With a key, only that entity's references are checked. Without one, every
entity that decodes is checked; entities that fail to decode are skipped
(see "dimsum load" for those). A target that exists but fails to decode is
not dangling.

Exit codes:
  0 - No dangling references
  1 - One or more dangling references
  2 - Command error (database or key not found, etc.)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return runRefs(opts, key, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.CacheSize, "cache-size", 0, "decoded entities kept in memory (default $DIMSUM_CACHE_SIZE or 1024)")

	return cmd
}

func (o *RefsOptions) cacheSize(cmd *cobra.Command) int {
	if cmd.Flags().Changed("cache-size") {
		return o.CacheSize
	}
	return o.Config.CacheSize
}

// existence treats a target that is stored but undecodable as present.
type existence struct {
	refs.Resolver
}

func (e existence) Resolve(ctx context.Context, key string) (*decode.Decoded, error) {
	d, err := e.Resolver.Resolve(ctx, key)
	if err != nil && decode.IsDecodeError(err) {
		return nil, nil
	}
	return d, err
}

func runRefs(opts *RefsOptions, key string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	st, err := opts.openExisting(f)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	cache, err := refs.NewCachingResolver(st, opts.cacheSize(cmd))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to create resolver", err)
	}
	resolver := existence{Resolver: cache}

	var entities []*decode.Decoded
	skipped := 0
	if key != "" {
		d, err := cache.Resolve(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "entity not found", err)
		}
		if err != nil {
			return f.Fail(ExitFailure, string(decode.Kind(err)), "entity failed to decode", err)
		}
		entities = append(entities, d)
	} else {
		report, err := loader.Load(ctx, st, loader.Options{
			Workers: opts.Config.Workers,
			Keep:    true,
			Logger:  opts.logger(cmd),
		})
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeReadFailed, "failed to read entities", err)
		}
		entities = report.Entities
		skipped = report.Failed
	}

	out := RefsOutput{
		Entities: len(entities),
		Skipped:  skipped,
		Dangling: []DanglingOutput{},
	}
	for _, d := range entities {
		edges := refs.Collect(d)
		out.References += len(edges)

		dangling, err := refs.Dangling(ctx, resolver, edges)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeReadFailed, "failed to resolve references", err)
		}
		for _, e := range dangling {
			out.Dangling = append(out.Dangling, DanglingOutput{
				From: d.Entity.Key,
				Path: e.Path,
				To:   e.Ref.Key,
				Name: e.Ref.Name,
			})
		}
	}
	f.VerboseLog("Resolver cached %d entities", cache.Len())

	var cliErr *CLIError
	if len(out.Dangling) > 0 {
		cliErr = &CLIError{
			Code:    ErrCodeDangling,
			Message: fmt.Sprintf("%d dangling reference(s)", len(out.Dangling)),
		}
	}

	if err := f.Report(out, cliErr, func(w io.Writer) { renderRefs(w, out) }); err != nil {
		return err
	}
	if cliErr != nil {
		return NewExitError(ExitFailure, cliErr.Message)
	}
	return nil
}

func renderRefs(w io.Writer, out RefsOutput) {
	fmt.Fprintf(w, "Checked %d references across %d entities", out.References, out.Entities)
	if out.Skipped > 0 {
		fmt.Fprintf(w, " (%d undecodable entities skipped)", out.Skipped)
	}
	fmt.Fprintln(w)

	if len(out.Dangling) == 0 {
		fmt.Fprintln(w, "✓ No dangling references")
		return
	}
	for _, d := range out.Dangling {
		target := d.To
		if d.Name != "" {
			target = fmt.Sprintf("%s (%q)", d.To, d.Name)
		}
		fmt.Fprintf(w, "  ✗ %s %s -> %s\n", d.From, d.Path, target)
	}
}
