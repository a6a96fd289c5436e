package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/contactsync/internal/adapter"
	"github.com/roach88/contactsync/internal/adapter/documents"
	"github.com/roach88/contactsync/internal/adapter/tree"
	"github.com/roach88/contactsync/internal/backend/docdb"
	"github.com/roach88/contactsync/internal/backend/treedb"
	"github.com/roach88/contactsync/internal/store"
)

// newLogger writes text logs to w at Info, or Debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// backendConn is an open backend behind its adapter.
type backendConn struct {
	adapter adapter.Adapter
	closers []func() error
}

// Close shuts the backend down, then the database under it.
func (b *backendConn) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// openBackend opens the backend named by --backend, persisted in --db when
// set.
func openBackend(ctx context.Context, opts *RootOptions) (*backendConn, error) {
	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}
	b := &backendConn{}

	var st *store.Store
	if opts.Database != "" {
		var err error
		st, err = store.Open(opts.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		b.closers = append(b.closers, st.Close)
	}

	switch opts.Backend {
	case documents.Name:
		dopts := []docdb.Option{docdb.WithLogger(logger)}
		if st != nil {
			dopts = append(dopts, docdb.WithStorage(st))
		}
		c, err := docdb.Open(ctx, dopts...)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to open %s backend: %w", opts.Backend, err)
		}
		b.closers = append(b.closers, c.Close)
		b.adapter = documents.New(c, documents.WithLogger(logger))

	case tree.Name:
		topts := []treedb.Option{treedb.WithLogger(logger)}
		if st != nil {
			topts = append(topts, treedb.WithStorage(st))
		}
		db, err := treedb.Open(ctx, topts...)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("failed to open %s backend: %w", opts.Backend, err)
		}
		b.closers = append(b.closers, db.Close)
		b.adapter = tree.New(db, tree.WithLogger(logger))

	default:
		_ = b.Close()
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}

	logger.Debug("backend open", "backend", opts.Backend, "db", opts.Database)
	return b, nil
}
