package docdb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/contactsync/internal/backend"
	"github.com/roach88/contactsync/internal/loop"
	"github.com/roach88/contactsync/internal/store"
)

// Client is a connection to one document database.
//
// Thread-safety: every method is safe for concurrent use. Callbacks run on
// the client's own goroutine, one at a time.
type Client struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	rules       backend.Rules
	online      bool
	closed      bool

	listeners backend.Registry[*QuerySnapshot]
	ids       IDGenerator
	storage   *store.Store
	dispatch  *loop.Loop
	cancel    context.CancelFunc
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithIDGenerator overrides document id allocation (default ULIDGenerator).
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Client) {
		c.ids = g
	}
}

// WithStorage persists every write to s and loads existing documents from it
// on Open. The caller keeps ownership of s.
func WithStorage(s *store.Store) Option {
	return func(c *Client) {
		c.storage = s
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Open creates a client and starts its callback goroutine.
func Open(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{
		collections: make(map[string]map[string]map[string]any),
		online:      true,
		ids:         ULIDGenerator{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.storage != nil {
		docs, err := c.storage.LoadAllDocuments(ctx)
		if err != nil {
			return nil, fmt.Errorf("docdb: open: %w", err)
		}
		for _, d := range docs {
			c.collectionLocked(d.Collection)[d.ID] = d.Data
		}
		c.logger.Debug("docdb loaded documents", "count", len(docs))
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.dispatch = loop.New(loop.WithName("docdb"), loop.WithLogger(c.logger))
	c.dispatch.Start(runCtx)

	return c, nil
}

// Close stops the client. Requests still queued are completed first; later
// requests fail with CodeCancelled. Close must not be called from a callback.
func (c *Client) Close() error {
	c.dispatch.Stop()
	<-c.dispatch.Done()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	return nil
}

// Collection returns a reference to the collection at path.
func (c *Client) Collection(path string) *CollectionRef {
	return &CollectionRef{client: c, path: path}
}

// SetRules replaces the access rules. Listeners are told about the change:
// losing read access delivers a permission error, regaining it delivers a
// fresh snapshot.
func (c *Client) SetRules(r backend.Rules) {
	c.mu.Lock()
	prev := c.rules
	c.rules = r
	c.mu.Unlock()

	if prev.ReadDenied == r.ReadDenied {
		return
	}
	c.dispatch.Post(func() {
		if r.ReadDenied {
			c.broadcastError(newError(CodePermissionDenied, "missing or insufficient permissions"))
			return
		}
		c.broadcastSnapshots()
	})
}

// GoOffline simulates losing the connection. Listeners receive an
// unavailable error and writes fail until GoOnline.
func (c *Client) GoOffline() {
	c.mu.Lock()
	wasOnline := c.online
	c.online = false
	c.mu.Unlock()

	if !wasOnline {
		return
	}
	c.dispatch.Post(func() {
		c.broadcastError(newError(CodeUnavailable, "the client is offline"))
	})
}

// GoOnline restores the connection. Every listener receives a fresh
// snapshot, the same way a reconnecting listener resynchronizes.
func (c *Client) GoOnline() {
	c.mu.Lock()
	wasOnline := c.online
	c.online = true
	c.mu.Unlock()

	if wasOnline {
		return
	}
	c.dispatch.Post(c.broadcastSnapshots)
}

// ListenerCount returns the number of registered listeners.
func (c *Client) ListenerCount() int {
	return c.listeners.Len()
}

// submit runs op on the callback goroutine and reports its result to done.
func (c *Client) submit(op func() error, done func(error)) {
	ok := c.dispatch.Post(func() {
		err := op()
		if done != nil {
			done(err)
		}
	})
	if !ok && done != nil {
		go done(newError(CodeCancelled, "client is closed"))
	}
}

// checkWriteLocked returns the error a write should fail with, if any.
func (c *Client) checkWriteLocked() error {
	switch {
	case c.closed:
		return newError(CodeCancelled, "client is closed")
	case !c.online:
		return newError(CodeUnavailable, "the client is offline")
	case c.rules.WriteDenied:
		return newError(CodePermissionDenied, "missing or insufficient permissions")
	}
	return nil
}

// readErrorLocked returns the error a listener should receive instead of a
// snapshot, if any.
func (c *Client) readErrorLocked() error {
	switch {
	case !c.online:
		return newError(CodeUnavailable, "the client is offline")
	case c.rules.ReadDenied:
		return newError(CodePermissionDenied, "missing or insufficient permissions")
	}
	return nil
}

func (c *Client) collectionLocked(path string) map[string]map[string]any {
	coll, ok := c.collections[path]
	if !ok {
		coll = make(map[string]map[string]any)
		c.collections[path] = coll
	}
	return coll
}

// notify pushes a fresh snapshot of collection to its listeners.
// Must run on the callback goroutine.
func (c *Client) notify(collection string) {
	c.mu.Lock()
	if c.readErrorLocked() != nil {
		c.mu.Unlock()
		return
	}
	snap := buildSnapshot(collection, c.collections[collection])
	c.mu.Unlock()

	for _, l := range c.listeners.Matching(func(p string) bool { return p == collection }) {
		l.Deliver(snap, nil)
	}
}

func (c *Client) broadcastError(err error) {
	for _, l := range c.listeners.Matching(func(string) bool { return true }) {
		l.Deliver(nil, err)
	}
}

func (c *Client) broadcastSnapshots() {
	for _, l := range c.listeners.Matching(func(string) bool { return true }) {
		c.deliverCurrent(l)
	}
}

// deliverCurrent sends l either the current snapshot of its collection or
// the read error in effect.
func (c *Client) deliverCurrent(l *backend.Listener[*QuerySnapshot]) {
	c.mu.Lock()
	if err := c.readErrorLocked(); err != nil {
		c.mu.Unlock()
		l.Deliver(nil, err)
		return
	}
	snap := buildSnapshot(l.Path, c.collections[l.Path])
	c.mu.Unlock()
	l.Deliver(snap, nil)
}
