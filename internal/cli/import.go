package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/jlewallen/dimsum/internal/decode"
	"github.com/jlewallen/dimsum/internal/store"
)

// maxLineSize bounds one serialized entity in an import file.
const maxLineSize = 16 << 20

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Check bool
}

// ImportOutput is the import command's result.
type ImportOutput struct {
	File     string          `json:"file"`
	Imported int             `json:"imported"`
	Stored   int             `json:"stored"`
	Failures []FailureOutput `json:"failures,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Write serialized entities into a world database",
		Long: `Import serialized entities, one JSON document per line, into the
database given by --db (created if missing). Rows are stored verbatim;
the key, version and gid columns are read from the document.
Use "-" to read from stdin.

With --check every document is decoded first and nothing is written when
any of them fails.

Examples:
  dimsum import --db world.sqlite3 entities.jsonl
  cat entities.jsonl | dimsum import --db world.sqlite3 --check -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "decode every entity before writing")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	var in io.Reader
	if path == "-" {
		in = cmd.InOrStdin()
	} else {
		file, err := os.Open(path)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("cannot open %s", path), err)
		}
		defer file.Close()
		in = file
	}

	rows, err := readImportRows(in)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid import file", err)
	}
	f.VerboseLog("Read %d entities from %s", len(rows), path)

	out := ImportOutput{File: path}

	if opts.Check {
		out.Failures, err = checkRows(rows)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to create decoder", err)
		}
		if len(out.Failures) > 0 {
			cliErr := &CLIError{
				Code:    ErrCodeLoadFailed,
				Message: fmt.Sprintf("%d of %d entities failed to decode, nothing imported", len(out.Failures), len(rows)),
			}
			if err := f.Report(out, cliErr, func(w io.Writer) { renderImport(w, out, cliErr) }); err != nil {
				return err
			}
			return NewExitError(ExitFailure, cliErr.Message)
		}
	}

	if opts.Database == "" {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "no database given (use --db or DIMSUM_DB)", nil)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeOpenFailed, "failed to open database", err)
	}
	defer st.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := st.PutRows(ctx, rows); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write entities", err)
	}
	out.Imported = len(rows)

	if out.Stored, err = st.CountRows(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, "failed to count entities", err)
	}

	return f.Success(out, func(w io.Writer) { renderImport(w, out, nil) })
}

// readImportRows reads one row per non-blank line. The key must be present;
// gid is taken from the identifiers component under either scope spelling.
func readImportRows(in io.Reader) ([]store.Row, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var rows []store.Row
	seen := map[string]int{}
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key := gjson.Get(line, "key")
		if key.Type != gjson.String || key.String() == "" {
			return nil, fmt.Errorf("line %d: document has no key", n)
		}
		if prev, ok := seen[key.String()]; ok {
			return nil, fmt.Errorf("line %d: key %q already seen on line %d", n, key.String(), prev)
		}
		seen[key.String()] = n

		gid := gjson.Get(line, "scopes.identifiers.gid")
		if !gid.Exists() {
			gid = gjson.Get(line, "chimeras.identifiers.gid")
		}

		rows = append(rows, store.Row{
			Key:        key.String(),
			GID:        gid.Uint(),
			Version:    gjson.Get(line, "version.i").Uint(),
			Serialized: line,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no entities found")
	}
	return rows, nil
}

func checkRows(rows []store.Row) ([]FailureOutput, error) {
	dec, err := decode.NewDecoder()
	if err != nil {
		return nil, err
	}

	var failures []FailureOutput
	for _, row := range rows {
		if _, err := dec.DecodeRow(row.Key, row.Serialized); err != nil {
			failures = append(failures, FailureOutput{
				Key:     row.Key,
				GID:     row.GID,
				Kind:    string(decode.Kind(err)),
				Path:    decode.Path(err),
				Message: err.Error(),
			})
		}
	}
	return failures, nil
}

func renderImport(w io.Writer, out ImportOutput, cliErr *CLIError) {
	for _, f := range out.Failures {
		fmt.Fprintf(w, "  ✗ %s %s\n", f.Key, f.Message)
	}
	if cliErr != nil {
		fmt.Fprintln(w, cliErr.Message)
		return
	}
	fmt.Fprintf(w, "✓ Imported %d entities from %s\n", out.Imported, out.File)
	fmt.Fprintf(w, "Database now holds %d entities\n", out.Stored)
}
