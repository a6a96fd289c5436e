package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/contactsync/internal/adapter/documents"
	"github.com/roach88/contactsync/internal/adapter/tree"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Backend  string // "documents" | "tree"
	Database string // SQLite file; empty keeps the backend in memory
	Path     string // collection (documents) or node (tree)

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidBackends defines the allowed --backend values.
var ValidBackends = []string{documents.Name, tree.Name}

// DefaultPath is the collection or node used when --path is not given.
const DefaultPath = "items"

// NewRootCommand creates the root command for the contactsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{logger: slog.Default()}

	cmd := &cobra.Command{
		Use:   "contactsync",
		Short: "Live contact list over a document or tree backend",
		Long: `contactsync keeps a contact list in sync with a realtime backend.

Two backends are available: "documents" (a collection of documents) and
"tree" (children of a node in a JSON tree). Both are in-process; pass --db
to persist them in a SQLite file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !slices.Contains(ValidBackends, opts.Backend) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid backend %q: must be one of %v", opts.Backend, ValidBackends))
			}
			if opts.Path == "" {
				return NewExitError(ExitCommandError, "path must not be empty")
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Backend, "backend", "b", documents.Name, "backend (documents|tree)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default in-memory)")
	cmd.PersistentFlags().StringVar(&opts.Path, "path", DefaultPath, "collection or node holding the contacts")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewCompareCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}
