package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/contactsync/internal/adapter"
	"github.com/roach88/contactsync/internal/contacts"
	"github.com/roach88/contactsync/internal/loop"
	"github.com/roach88/contactsync/internal/record"
)

// Timeout bounds how long a command waits for the backend to answer.
var Timeout = 10 * time.Second

// ListResult is the output of list and of each watch update.
type ListResult struct {
	Backend  string           `json:"backend"`
	Path     string           `json:"path"`
	Revision int64            `json:"revision"`
	Contacts []record.Contact `json:"contacts"`
}

// WriteResult is the output of add, edit and remove.
type WriteResult struct {
	Op string `json:"op"`
	ID string `json:"id"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the contact list once",
		Long: `Subscribe to the contact path, print the first list the backend
delivers and exit.

Example:
  contactsync list --backend tree --db ./contacts.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> [phone]",
		Short: "Create a contact",
		Long: `Create a contact and print the id the backend allocated.

Example:
  contactsync add "Ana Lima" "+55 11 5555-0100" --db ./contacts.db`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, phone := args[0], optionalArg(args, 1)
			return runWrite(rootOpts, cmd, "add", name, phone, func(d *contacts.Dispatcher) *adapter.Outcome {
				return d.AddContact(name, phone)
			})
		},
	}
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <name> [phone]",
		Short: "Overwrite the name and phone number of a contact",
		Long: `Overwrite the name and phone number of an existing contact. A missing
phone number clears it. Editing an id that does not exist fails with
NOT_FOUND.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := record.Contact{ID: args[0], Name: args[1], PhoneNumber: optionalArg(args, 2)}
			return runWrite(rootOpts, cmd, "edit", c.Name, c.PhoneNumber, func(d *contacts.Dispatcher) *adapter.Outcome {
				return d.EditContact(c)
			})
		},
	}
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a contact",
		Long:  `Delete a contact. Removing an id that does not exist succeeds.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := record.Contact{ID: args[0]}
			return runWrite(rootOpts, cmd, "remove", "", "", func(d *contacts.Dispatcher) *adapter.Outcome {
				return d.RemoveContact(c)
			})
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ctx, cancel := context.WithTimeout(commandContext(cmd), Timeout)
	defer cancel()

	var result *ListResult
	err := withSession(ctx, opts, formatter, func(sess *contacts.Session, stop func()) {
		sess.Observe(func(list []record.Contact) {
			if result != nil || sess.Revision() == 0 {
				return
			}
			result = newListResult(opts.Backend, sess, list)
			stop()
		})
	})
	if err != nil {
		return err
	}
	if result == nil {
		_ = formatter.Error(ErrCodeTimeout, "no snapshot from backend", nil)
		return NewExitError(ExitFailure, "no snapshot from backend")
	}
	return formatter.Render(result, result.writeText)
}

func runWrite(opts *RootOptions, cmd *cobra.Command, op, name, phone string, send func(*contacts.Dispatcher) *adapter.Outcome) error {
	formatter := newFormatter(opts, cmd)
	if op != "remove" {
		if err := checkContact(formatter, name, phone); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), Timeout)
	defer cancel()

	b, err := openBackend(ctx, opts)
	if err != nil {
		_ = formatter.Error(ErrCodeBackend, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open backend", err)
	}
	defer closeBackend(opts, b)

	d := contacts.NewDispatcher(b.adapter, opts.Path, contacts.WithLogger(opts.logger))
	defer d.Close()

	formatter.VerboseLog("%s on %s/%s", op, opts.Backend, opts.Path)
	o := send(d)
	if err := o.Wait(ctx); err != nil {
		code := string(adapter.CodeOf(err))
		if errors.Is(err, context.DeadlineExceeded) {
			code = ErrCodeTimeout
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, op+" failed", err)
	}

	result := WriteResult{Op: op, ID: o.ID()}
	return formatter.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s\n", op, result.ID)
	})
}

// withSession opens a session whose owner loop runs on the calling
// goroutine, calls setup, and runs the loop until ctx ends or setup's stop
// is called. Observers therefore never race with the command's output.
func withSession(ctx context.Context, opts *RootOptions, formatter *OutputFormatter, setup func(sess *contacts.Session, stop func())) error {
	b, err := openBackend(ctx, opts)
	if err != nil {
		_ = formatter.Error(ErrCodeBackend, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open backend", err)
	}
	defer closeBackend(opts, b)

	owner := loop.New(loop.WithName("cli"), loop.WithLogger(opts.logger))
	sess, err := contacts.Open(b.adapter, opts.Path,
		contacts.WithLoop(owner),
		contacts.WithLogger(opts.logger),
		contacts.WithErrorHandler(func(err error) {
			formatter.VerboseLog("subscription error: %v", err)
		}))
	if err != nil {
		_ = formatter.Error(string(adapter.CodeOf(err)), err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to subscribe", err)
	}
	defer sess.Close()

	setup(sess, owner.Stop)
	if err := owner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "owner loop", err)
	}
	return nil
}

func closeBackend(opts *RootOptions, b *backendConn) {
	if err := b.Close(); err != nil {
		opts.logger.Error("error closing backend", "error", err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newListResult(backend string, sess *contacts.Session, list []record.Contact) *ListResult {
	return &ListResult{
		Backend:  backend,
		Path:     sess.Path(),
		Revision: sess.Revision(),
		Contacts: list,
	}
}

func (r *ListResult) writeText(w io.Writer) {
	if len(r.Contacts) == 0 {
		fmt.Fprintln(w, "(no contacts)")
		return
	}
	for _, c := range r.Contacts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.PhoneNumber)
	}
}
