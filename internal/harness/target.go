package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/contactsync/internal/adapter"
	"github.com/roach88/contactsync/internal/adapter/documents"
	"github.com/roach88/contactsync/internal/adapter/tree"
	"github.com/roach88/contactsync/internal/backend/docdb"
	"github.com/roach88/contactsync/internal/backend/treedb"
	"github.com/roach88/contactsync/internal/testutil"
)

// Backends lists the backend names scenarios can run on, in comparison
// order.
var Backends = []string{documents.Name, tree.Name}

// target is a fresh in-memory backend plus the raw access the harness needs
// beyond the adapter contract.
type target struct {
	adapter adapter.Adapter

	// put writes value under path/key, bypassing the adapter.
	put func(path, key string, value map[string]any, done func(error))

	// current reads the subscribed path directly as an adapter snapshot.
	current func(path string) (adapter.Snapshot, error)

	offline func()
	online  func()
	close   func() error
}

func openTarget(ctx context.Context, backend string, logger *slog.Logger) (*target, error) {
	switch backend {
	case documents.Name:
		c, err := docdb.Open(ctx,
			docdb.WithIDGenerator(testutil.NewSequenceIDs("id")),
			docdb.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return &target{
			adapter: documents.New(c, documents.WithLogger(logger)),
			put: func(path, key string, value map[string]any, done func(error)) {
				c.Collection(path).Doc(key).Set(value, done)
			},
			current: func(path string) (adapter.Snapshot, error) {
				qs, err := c.Collection(path).Get()
				if err != nil {
					return nil, err
				}
				return documents.FromQuery(qs), nil
			},
			offline: c.GoOffline,
			online:  c.GoOnline,
			close:   c.Close,
		}, nil

	case tree.Name:
		db, err := treedb.Open(ctx,
			treedb.WithKeyGenerator(testutil.NewSequenceIDs("id")),
			treedb.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return &target{
			adapter: tree.New(db, tree.WithLogger(logger)),
			put: func(path, key string, value map[string]any, done func(error)) {
				db.Ref(path).Child(key).Set(value, done)
			},
			current: func(path string) (adapter.Snapshot, error) {
				ds, err := db.Ref(path).Get()
				if err != nil {
					return nil, err
				}
				return tree.FromData(ds), nil
			},
			offline: db.GoOffline,
			online:  db.GoOnline,
			close:   db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
