package treedb

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/roach88/contactsync/internal/backend"
	"github.com/roach88/contactsync/internal/loop"
	"github.com/roach88/contactsync/internal/store"
)

// DefaultName is the tree name used in storage when WithName is not given.
const DefaultName = "default"

// Database is a connection to one JSON tree.
//
// Thread-safety: every method is safe for concurrent use. Callbacks run on
// the database's own goroutine, one at a time.
type Database struct {
	mu     sync.Mutex
	root   any
	rules  backend.Rules
	online bool
	closed bool

	listeners backend.Registry[DataSnapshot]
	keys      KeyGenerator
	storage   *store.Store
	name      string
	dispatch  *loop.Loop
	cancel    context.CancelFunc
	logger    *slog.Logger
}

// Option configures a Database.
type Option func(*Database)

// WithKeyGenerator overrides push key allocation (default UUIDv7Generator).
func WithKeyGenerator(g KeyGenerator) Option {
	return func(db *Database) {
		db.keys = g
	}
}

// WithStorage persists the tree to s after every write and loads it on Open.
// The caller keeps ownership of s.
func WithStorage(s *store.Store) Option {
	return func(db *Database) {
		db.storage = s
	}
}

// WithName sets the name the tree is stored under.
func WithName(name string) Option {
	return func(db *Database) {
		if name != "" {
			db.name = name
		}
	}
}

// WithLogger sets the database logger.
func WithLogger(logger *slog.Logger) Option {
	return func(db *Database) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// Open creates a database and starts its callback goroutine.
func Open(ctx context.Context, opts ...Option) (*Database, error) {
	db := &Database{
		online: true,
		keys:   UUIDv7Generator{},
		name:   DefaultName,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(db)
	}

	if db.storage != nil {
		raw, found, err := db.storage.LoadTree(ctx, db.name)
		if err != nil {
			return nil, fmt.Errorf("treedb: open: %w", err)
		}
		if found {
			root, err := normalize(raw)
			if err != nil {
				return nil, fmt.Errorf("treedb: open: %w", err)
			}
			db.root = root
		}
		db.logger.Debug("treedb loaded tree", "name", db.name, "found", found)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	db.cancel = cancel
	db.dispatch = loop.New(loop.WithName("treedb"), loop.WithLogger(db.logger))
	db.dispatch.Start(runCtx)

	return db, nil
}

// Close stops the database. Requests still queued are completed first;
// later requests fail with ErrClosed. Close must not be called from a
// callback.
func (db *Database) Close() error {
	db.dispatch.Stop()
	<-db.dispatch.Done()

	db.mu.Lock()
	db.closed = true
	db.mu.Unlock()

	db.cancel()
	return nil
}

// Ref returns a reference to the location at path.
func (db *Database) Ref(path string) *Ref {
	return &Ref{db: db, raw: path}
}

// SetRules replaces the access rules. Observers are told about the change:
// losing read access delivers ErrPermissionDenied, regaining it delivers a
// fresh snapshot.
func (db *Database) SetRules(r backend.Rules) {
	db.mu.Lock()
	prev := db.rules
	db.rules = r
	db.mu.Unlock()

	if prev.ReadDenied == r.ReadDenied {
		return
	}
	db.dispatch.Post(func() {
		if r.ReadDenied {
			db.broadcastError(ErrPermissionDenied)
			return
		}
		db.broadcastSnapshots()
	})
}

// GoOffline simulates losing the connection. Observers receive
// ErrDisconnected and writes fail until GoOnline.
func (db *Database) GoOffline() {
	db.mu.Lock()
	wasOnline := db.online
	db.online = false
	db.mu.Unlock()

	if !wasOnline {
		return
	}
	db.dispatch.Post(func() {
		db.broadcastError(ErrDisconnected)
	})
}

// GoOnline restores the connection and resends every observer its current
// value.
func (db *Database) GoOnline() {
	db.mu.Lock()
	wasOnline := db.online
	db.online = true
	db.mu.Unlock()

	if wasOnline {
		return
	}
	db.dispatch.Post(db.broadcastSnapshots)
}

// ListenerCount returns the number of registered observers.
func (db *Database) ListenerCount() int {
	return db.listeners.Len()
}

func (db *Database) submit(op func(), onClosed func()) {
	if !db.dispatch.Post(op) && onClosed != nil {
		go onClosed()
	}
}

func (db *Database) checkWriteLocked() error {
	switch {
	case db.closed:
		return ErrClosed
	case !db.online:
		return ErrDisconnected
	case db.rules.WriteDenied:
		return ErrPermissionDenied
	}
	return nil
}

func (db *Database) readErrorLocked() error {
	switch {
	case !db.online:
		return ErrDisconnected
	case db.rules.ReadDenied:
		return ErrPermissionDenied
	}
	return nil
}

// commit replaces the tree with next, persisting it first, and notifies every
// observer whose value changed. Must run on the callback goroutine.
func (db *Database) commit(at string, next any) error {
	db.mu.Lock()
	if db.storage != nil {
		if err := db.storage.SaveTree(context.Background(), db.name, next); err != nil {
			db.mu.Unlock()
			return fmt.Errorf("treedb: persist: %w", err)
		}
	}
	prev := db.root
	db.root = next

	if db.readErrorLocked() != nil {
		db.mu.Unlock()
		return nil
	}

	type delivery struct {
		l    *backend.Listener[DataSnapshot]
		snap DataSnapshot
	}
	var out []delivery
	for _, l := range db.listeners.Matching(func(p string) bool { return related(p, at) }) {
		segs, _ := parsePath(l.Path)
		after := getAt(next, segs)
		if reflect.DeepEqual(getAt(prev, segs), after) {
			continue
		}
		out = append(out, delivery{l: l, snap: snapshotAt(segs, after)})
	}
	db.mu.Unlock()

	for _, d := range out {
		d.l.Deliver(d.snap, nil)
	}
	return nil
}

func (db *Database) broadcastError(err error) {
	for _, l := range db.listeners.Matching(func(string) bool { return true }) {
		l.Deliver(DataSnapshot{}, err)
	}
}

func (db *Database) broadcastSnapshots() {
	for _, l := range db.listeners.Matching(func(string) bool { return true }) {
		db.deliverCurrent(l)
	}
}

func (db *Database) deliverCurrent(l *backend.Listener[DataSnapshot]) {
	db.mu.Lock()
	if err := db.readErrorLocked(); err != nil {
		db.mu.Unlock()
		l.Deliver(DataSnapshot{}, err)
		return
	}
	segs, _ := parsePath(l.Path)
	snap := snapshotAt(segs, getAt(db.root, segs))
	db.mu.Unlock()
	l.Deliver(snap, nil)
}

func snapshotAt(segs []string, v any) DataSnapshot {
	key := ""
	if len(segs) > 0 {
		key = segs[len(segs)-1]
	}
	return DataSnapshot{Key: key, Value: cloneValue(v)}
}
