package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jlewallen/dimsum/internal/decode"
	"github.com/jlewallen/dimsum/internal/document"
	"github.com/jlewallen/dimsum/internal/model"
	"github.com/jlewallen/dimsum/internal/refs"
	"github.com/jlewallen/dimsum/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	GID uint64
}

// ShowOutput is the show command's result.
type ShowOutput struct {
	Key          string                     `json:"key"`
	GID          uint64                     `json:"gid,omitempty"`
	Digest       string                     `json:"digest"`
	Entity       *model.Entity              `json:"entity"`
	Components   map[string]model.Component `json:"components"`
	Unrecognized []string                   `json:"unrecognized,omitempty"`
	References   []refs.Edge                `json:"references"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [key]",
		Short: "Decode and print one entity",
		Long: `Decode one entity, selected by key or by --gid, and print its envelope,
components and outgoing references.

The digest is a fingerprint of the stored document's canonical form: two
rows with the same digest hold the same document regardless of key order
or number formatting.

Examples:
  dimsum show 4c5d2b
  dimsum show --gid 42 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return runShow(opts, key, cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.GID, "gid", 0, "select the entity by gid instead of key")

	return cmd
}

func runShow(opts *ShowOptions, key string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if (key == "") == (opts.GID == 0) {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "give exactly one of a key or --gid", nil)
	}

	st, err := opts.openExisting(f)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	var row store.Row
	if key != "" {
		row, err = st.ReadRow(ctx, key)
	} else {
		row, err = st.ReadRowByGID(ctx, opts.GID)
	}
	if errors.Is(err, store.ErrNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "entity not found", err)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "failed to read entity", err)
	}

	dec, err := decode.NewDecoder()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to create decoder", err)
	}

	d, err := dec.DecodeRow(row.Key, row.Serialized)
	if err != nil {
		return f.Fail(ExitFailure, string(decode.Kind(err)), "entity failed to decode", err)
	}

	digest, err := digestOf(row.Serialized)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "failed to fingerprint entity", err)
	}

	out := ShowOutput{
		Key:          row.Key,
		GID:          row.GID,
		Digest:       digest,
		Entity:       d.Entity,
		Components:   d.Components,
		Unrecognized: decode.Unrecognized(d.Components),
		References:   refs.Collect(d),
	}
	if out.References == nil {
		out.References = []refs.Edge{}
	}

	return f.Success(out, func(w io.Writer) { renderShow(w, out) })
}

// digestOf fingerprints the canonical form of serialized.
func digestOf(serialized string) (string, error) {
	doc, err := document.ParseString(serialized)
	if err != nil {
		return "", err
	}
	return document.Fingerprint(document.DomainDocument, doc)
}

func renderShow(w io.Writer, out ShowOutput) {
	e := out.Entity
	fmt.Fprintf(w, "Entity %s (class %s, version %d", e.Key, e.Class, e.Version)
	if out.GID != 0 {
		fmt.Fprintf(w, ", gid %d", out.GID)
	}
	fmt.Fprintln(w, ")")
	fmt.Fprintf(w, "Digest   %s\n", out.Digest)
	fmt.Fprintf(w, "Parent   %s\n", describeRef(e.Parent))
	fmt.Fprintf(w, "Creator  %s\n", describeRef(e.Creator))

	fmt.Fprintln(w, "Components:")
	tags := lo.Keys(out.Components)
	slices.Sort(tags)
	if len(tags) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, tag := range tags {
		if slices.Contains(out.Unrecognized, tag) {
			fmt.Fprintf(w, "  %s (unrecognized)\n", tag)
			continue
		}
		fmt.Fprintf(w, "  %s\n", tag)
	}

	if len(out.References) == 0 {
		return
	}
	fmt.Fprintln(w, "References:")
	for _, edge := range out.References {
		fmt.Fprintf(w, "  %s -> %s\n", edge.Path, describeRef(&edge.Ref))
	}
}

func describeRef(ref *model.EntityRef) string {
	if ref == nil {
		return "-"
	}
	switch {
	case ref.Name != "" && ref.Klass != "":
		return fmt.Sprintf("%s (%s %q)", ref.Key, ref.Klass, ref.Name)
	case ref.Name != "":
		return fmt.Sprintf("%s (%q)", ref.Key, ref.Name)
	default:
		return ref.Key
	}
}
