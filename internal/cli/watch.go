package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/contactsync/internal/contacts"
	"github.com/roach88/contactsync/internal/record"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the contact list on every change",
		Long: `Subscribe to the contact path and print the full list every time the
backend delivers a snapshot. Runs until interrupted.

In JSON mode each update is one line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, cmd)
		},
	}
}

func runWatch(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	var renderErr error
	err := withSession(ctx, opts, formatter, func(sess *contacts.Session, stop func()) {
		sess.Observe(func(list []record.Contact) {
			rev := sess.Revision()
			if rev == 0 {
				return
			}
			result := newListResult(opts.Backend, sess, list)
			if err := formatter.Render(result, func(w io.Writer) {
				fmt.Fprintf(w, "revision %d: %d contact(s)\n", rev, len(list))
				result.writeText(w)
			}); err != nil {
				renderErr = err
				stop()
			}
		})
	})
	if err != nil {
		return err
	}
	return renderErr
}
