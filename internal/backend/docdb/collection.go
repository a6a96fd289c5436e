package docdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/contactsync/internal/backend"
)

// CollectionRef addresses a collection.
type CollectionRef struct {
	client *Client
	path   string
}

// Path returns the collection path.
func (r *CollectionRef) Path() string {
	return r.path
}

// Doc returns a reference to the document id in this collection.
func (r *CollectionRef) Doc(id string) *DocumentRef {
	return &DocumentRef{coll: r, id: id}
}

// NewDoc returns a reference with a freshly allocated id.
func (r *CollectionRef) NewDoc() *DocumentRef {
	return r.Doc(r.client.ids.NewID())
}

// AddDocument stores data under a new id and returns the reference
// immediately; done reports whether the write was accepted.
func (r *CollectionRef) AddDocument(data map[string]any, done func(error)) *DocumentRef {
	ref := r.NewDoc()
	ref.Set(data, done)
	return ref
}

// AddSnapshotListener registers fn for this collection. fn receives the
// current documents right away, then again after every change, or an error
// while the client is offline or reads are denied. Errors do not remove the
// listener.
func (r *CollectionRef) AddSnapshotListener(fn func(*QuerySnapshot, error)) *ListenerRegistration {
	c := r.client
	l := backend.NewListener(r.path, fn)

	if err := ValidateCollectionPath(r.path); err != nil {
		c.dispatch.Post(func() { l.Deliver(nil, err) })
		return &ListenerRegistration{client: c, listener: l}
	}

	c.listeners.Add(l)
	c.dispatch.Post(func() { c.deliverCurrent(l) })
	return &ListenerRegistration{client: c, listener: l}
}

// Get reads the current documents directly, bypassing listeners.
func (r *CollectionRef) Get() (*QuerySnapshot, error) {
	if err := ValidateCollectionPath(r.path); err != nil {
		return nil, err
	}
	c := r.client
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, newError(CodeCancelled, "client is closed")
	}
	return buildSnapshot(r.path, c.collections[r.path]), nil
}

// ListenerRegistration is a live snapshot listener.
type ListenerRegistration struct {
	client   *Client
	listener *backend.Listener[*QuerySnapshot]
}

// Remove detaches the listener. When Remove returns, no callback for it is
// running and none will run. Safe to call more than once.
func (r *ListenerRegistration) Remove() {
	r.listener.Remove()
	r.client.listeners.Drop(r.listener)
}

// DocumentRef addresses a single document.
type DocumentRef struct {
	coll *CollectionRef
	id   string
}

// ID returns the document id.
func (d *DocumentRef) ID() string {
	return d.id
}

// Path returns "collection/id".
func (d *DocumentRef) Path() string {
	return d.coll.path + "/" + d.id
}

// Set creates or replaces the document.
func (d *DocumentRef) Set(data map[string]any, done func(error)) {
	d.write(done, func(coll map[string]map[string]any) error {
		doc := cloneMap(data)
		if doc == nil {
			doc = map[string]any{}
		}
		if err := d.persist(doc); err != nil {
			return err
		}
		coll[d.id] = doc
		return nil
	})
}

// Update merges data into the existing document. Fails with CodeNotFound if
// the document does not exist.
func (d *DocumentRef) Update(data map[string]any, done func(error)) {
	d.write(done, func(coll map[string]map[string]any) error {
		existing, ok := coll[d.id]
		if !ok {
			return newError(CodeNotFound, "no document to update: %s", d.Path())
		}
		merged := cloneMap(existing)
		if merged == nil {
			merged = make(map[string]any, len(data))
		}
		for k, v := range data {
			merged[k] = cloneValue(v)
		}
		if err := d.persist(merged); err != nil {
			return err
		}
		coll[d.id] = merged
		return nil
	})
}

// Delete removes the document. Deleting a missing document succeeds.
func (d *DocumentRef) Delete(done func(error)) {
	d.write(done, func(coll map[string]map[string]any) error {
		if _, ok := coll[d.id]; !ok {
			return nil
		}
		if s := d.coll.client.storage; s != nil {
			if _, err := s.DeleteDocument(context.Background(), d.coll.path, d.id); err != nil {
				return newError(CodeInternal, "%v", err)
			}
		}
		delete(coll, d.id)
		return nil
	})
}

// Get reads the document directly.
func (d *DocumentRef) Get() (DocumentSnapshot, bool) {
	c := d.coll.client
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.collections[d.coll.path][d.id]
	if !ok {
		return DocumentSnapshot{}, false
	}
	return DocumentSnapshot{ID: d.id, Data: cloneMap(data)}, true
}

// write validates the request, applies mutate under the client lock on the
// callback goroutine and notifies listeners of the collection on success.
func (d *DocumentRef) write(done func(error), mutate func(coll map[string]map[string]any) error) {
	c := d.coll.client
	c.submit(func() error {
		if err := ValidateCollectionPath(d.coll.path); err != nil {
			return err
		}
		if err := ValidateDocumentID(d.id); err != nil {
			return err
		}

		c.mu.Lock()
		if err := c.checkWriteLocked(); err != nil {
			c.mu.Unlock()
			return err
		}
		err := mutate(c.collectionLocked(d.coll.path))
		c.mu.Unlock()
		if err != nil {
			return err
		}

		c.notify(d.coll.path)
		return nil
	}, done)
}

func (d *DocumentRef) persist(data map[string]any) error {
	s := d.coll.client.storage
	if s == nil {
		return nil
	}
	if err := s.PutDocument(context.Background(), d.coll.path, d.id, data); err != nil {
		return newError(CodeInternal, "%v", err)
	}
	return nil
}

// ValidateCollectionPath reports whether path can address a collection.
func ValidateCollectionPath(path string) error {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") || strings.Contains(path, "//") {
		return newError(CodeInvalidArgument, "invalid collection path %q", path)
	}
	return nil
}

// ValidateDocumentID reports whether id can address a document.
func ValidateDocumentID(id string) error {
	if id == "" || strings.Contains(id, "/") {
		return newError(CodeInvalidArgument, "invalid document id %q", id)
	}
	return nil
}

// String implements fmt.Stringer for log output.
func (d *DocumentRef) String() string {
	return fmt.Sprintf("docdb.DocumentRef(%s)", d.Path())
}
