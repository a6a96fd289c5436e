package backend

import "sync"

// Listener is one registered push callback.
//
// Deliver and Remove serialize on the listener's mutex: once Remove returns,
// no callback is running and none will start. Remove must therefore not be
// called from inside the listener's own callback.
type Listener[S any] struct {
	Path string

	mu      sync.Mutex
	removed bool
	fn      func(S, error)
}

// NewListener creates a listener for path.
func NewListener[S any](path string, fn func(S, error)) *Listener[S] {
	return &Listener[S]{Path: path, fn: fn}
}

// Deliver invokes the callback unless the listener was removed.
func (l *Listener[S]) Deliver(snap S, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.removed {
		return
	}
	l.fn(snap, err)
}

// Remove detaches the listener. Safe to call more than once.
func (l *Listener[S]) Remove() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removed = true
}

// Removed reports whether Remove has been called.
func (l *Listener[S]) Removed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removed
}

// Registry tracks the live listeners of one database.
type Registry[S any] struct {
	mu    sync.Mutex
	items []*Listener[S]
}

// Add registers l.
func (r *Registry[S]) Add(l *Listener[S]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, l)
}

// Drop forgets l. It does not call l.Remove.
func (r *Registry[S]) Drop(l *Listener[S]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, item := range r.items {
		if item == l {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return
		}
	}
}

// Matching returns the live listeners for which match returns true, in
// registration order.
func (r *Registry[S]) Matching(match func(path string) bool) []*Listener[S] {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Listener[S]
	for _, l := range r.items {
		if match(l.Path) {
			out = append(out, l)
		}
	}
	return out
}

// Len returns the number of registered listeners.
func (r *Registry[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
