package treedb

import (
	"fmt"
	"sort"

	"github.com/roach88/contactsync/internal/backend"
)

// Ref addresses one location in the tree.
type Ref struct {
	db  *Database
	raw string
}

// Path returns the normalized path, without leading or trailing slashes.
func (r *Ref) Path() string {
	segs, err := parsePath(r.raw)
	if err != nil {
		return r.raw
	}
	return joinPath(segs)
}

// Key returns the last path segment, or "" for the root.
func (r *Ref) Key() string {
	segs, err := parsePath(r.raw)
	if err != nil || len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Child returns a reference to the relative path p below r.
func (r *Ref) Child(p string) *Ref {
	return r.db.Ref(r.raw + "/" + p)
}

// Push returns a child reference under a newly allocated key. Nothing is
// written until the caller sets a value.
func (r *Ref) Push() *Ref {
	return r.Child(r.db.keys.NewKey())
}

// Set replaces the value at r. A nil value removes it.
func (r *Ref) Set(value any, done func(error)) {
	r.write(done, func(segs []string, root any) (any, error) {
		v, err := normalize(value)
		if err != nil {
			return nil, err
		}
		return setAt(root, segs, v), nil
	})
}

// Update sets several children of r at once. Keys are relative paths; a nil
// value removes that child. Children not named are left alone.
func (r *Ref) Update(values map[string]any, done func(error)) {
	r.write(done, func(segs []string, root any) (any, error) {
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			rel, err := parsePath(k)
			if err != nil || len(rel) == 0 {
				return nil, fmt.Errorf("%w: update key %q", ErrInvalidPath, k)
			}
			v, err := normalize(values[k])
			if err != nil {
				return nil, err
			}
			root = setAt(root, append(append([]string(nil), segs...), rel...), v)
		}
		return root, nil
	})
}

// Remove deletes the value at r. Removing a missing location succeeds.
func (r *Ref) Remove(done func(error)) {
	r.Set(nil, done)
}

// Get reads the current value directly, bypassing observers.
func (r *Ref) Get() (DataSnapshot, error) {
	segs, err := parsePath(r.raw)
	if err != nil {
		return DataSnapshot{}, err
	}
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return DataSnapshot{}, ErrClosed
	}
	return snapshotAt(segs, getAt(db.root, segs)), nil
}

// Observe registers fn for the value at r. fn receives the current value
// right away, then again whenever it changes, or an error while the database
// is offline or reads are denied. Errors do not remove the observer.
func (r *Ref) Observe(fn func(DataSnapshot, error)) *Registration {
	db := r.db
	segs, err := parsePath(r.raw)
	l := backend.NewListener(joinPath(segs), fn)
	if err != nil {
		db.dispatch.Post(func() { l.Deliver(DataSnapshot{}, err) })
		return &Registration{db: db, listener: l}
	}

	db.listeners.Add(l)
	db.dispatch.Post(func() { db.deliverCurrent(l) })
	return &Registration{db: db, listener: l}
}

// RunTransaction atomically replaces the value at r with the result of
// update. update receives a copy of the current value (nil when absent) and
// returns the new value, or false to abort. done receives the outcome:
// committed is false when update aborted, and snap is the value at r
// afterwards.
func (r *Ref) RunTransaction(update func(current any) (any, bool), done func(err error, committed bool, snap DataSnapshot)) {
	db := r.db
	finish := func(err error, committed bool, snap DataSnapshot) {
		if done != nil {
			done(err, committed, snap)
		}
	}

	db.submit(func() {
		segs, err := parsePath(r.raw)
		if err != nil {
			finish(err, false, DataSnapshot{})
			return
		}

		db.mu.Lock()
		if err := db.checkWriteLocked(); err != nil {
			db.mu.Unlock()
			finish(err, false, DataSnapshot{})
			return
		}
		current := cloneValue(getAt(db.root, segs))
		next := cloneValue(db.root)
		db.mu.Unlock()

		v, ok := update(current)
		if !ok {
			finish(nil, false, snapshotAt(segs, current))
			return
		}
		nv, err := normalize(v)
		if err != nil {
			finish(err, false, snapshotAt(segs, current))
			return
		}
		if err := db.commit(joinPath(segs), setAt(next, segs, nv)); err != nil {
			finish(err, false, snapshotAt(segs, current))
			return
		}
		finish(nil, true, snapshotAt(segs, nv))
	}, func() { finish(ErrClosed, false, DataSnapshot{}) })
}

// write applies mutate to a copy of the tree on the callback goroutine and
// commits the result.
func (r *Ref) write(done func(error), mutate func(segs []string, root any) (any, error)) {
	db := r.db
	finish := func(err error) {
		if done != nil {
			done(err)
		}
	}

	db.submit(func() {
		segs, err := parsePath(r.raw)
		if err != nil {
			finish(err)
			return
		}

		db.mu.Lock()
		if err := db.checkWriteLocked(); err != nil {
			db.mu.Unlock()
			finish(err)
			return
		}
		next := cloneValue(db.root)
		db.mu.Unlock()

		next, err = mutate(segs, next)
		if err != nil {
			finish(err)
			return
		}
		finish(db.commit(joinPath(segs), next))
	}, func() { finish(ErrClosed) })
}

// String implements fmt.Stringer for log output.
func (r *Ref) String() string {
	return fmt.Sprintf("treedb.Ref(/%s)", r.Path())
}

// Registration is a live observer.
type Registration struct {
	db       *Database
	listener *backend.Listener[DataSnapshot]
}

// Remove detaches the observer. When Remove returns, no callback for it is
// running and none will run. Safe to call more than once.
func (r *Registration) Remove() {
	r.listener.Remove()
	r.db.listeners.Drop(r.listener)
}
