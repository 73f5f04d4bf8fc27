package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jlewallen/dimsum/internal/config"
	"github.com/jlewallen/dimsum/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string

	// Config holds environment defaults. Flags that were set explicitly win.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the dimsum CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dimsum",
		Short: "dimsum - world entity loader",
		Long:  "Load persisted world entities and decode them into typed components.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid environment", err)
			}
			opts.Config = cfg
			if !cmd.Flags().Changed("db") {
				opts.Database = cfg.DB
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite world database (default $DIMSUM_DB or world.sqlite3)")

	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewRefsCommand(opts))
	cmd.AddCommand(NewTagsCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter builds the output formatter for a command invocation.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// logger returns a text logger on the command's stderr: debug when verbose,
// warnings otherwise so per-entity failures still surface.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return newLogger(cmd.ErrOrStderr(), level)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openExisting opens the configured database, refusing to create a new one.
func (o *RootOptions) openExisting(f *OutputFormatter) (*store.Store, error) {
	if o.Database == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, "no database given (use --db or DIMSUM_DB)", nil)
	}
	if !fileExists(o.Database) {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound,
			fmt.Sprintf("database not found: %s", o.Database), nil)
	}

	st, err := store.Open(o.Database)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeOpenFailed, "failed to open database", err)
	}
	f.VerboseLog("Opened %s", o.Database)
	return st, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// commandContext returns the command's context, cancelled on interrupt.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func sortedStrings(s []string) []string {
	slices.Sort(s)
	return s
}
