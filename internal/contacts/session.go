package contacts

import (
	"sync"

	"github.com/roach88/contactsync/internal/adapter"
	"github.com/roach88/contactsync/internal/record"
)

// Session is the presentation boundary: a live contact list plus the
// commands that change it.
type Session struct {
	store      *Store
	dispatcher *Dispatcher
	closeOnce  sync.Once
}

// Open creates and activates a session on path.
func Open(a adapter.Adapter, path string, opts ...Option) (*Session, error) {
	st := New(a, path, opts...)
	if err := st.Activate(); err != nil {
		st.Dispose()
		return nil, err
	}
	return &Session{
		store:      st,
		dispatcher: NewDispatcher(a, path, opts...),
	}, nil
}

// Observe registers fn for the live list. See Store.Observe.
func (s *Session) Observe(fn func([]record.Contact)) (cancel func()) {
	return s.store.Observe(fn)
}

// Path returns the collection or node the session is bound to.
func (s *Session) Path() string {
	return s.store.Path()
}

// Records returns the current list.
func (s *Session) Records() []record.Contact {
	return s.store.Records()
}

// Revision counts applied snapshots.
func (s *Session) Revision() int64 {
	return s.store.Revision()
}

// AddContact creates a contact.
func (s *Session) AddContact(name, phoneNumber string) *adapter.Outcome {
	return s.dispatcher.AddContact(name, phoneNumber)
}

// EditContact overwrites the name and phone number of contact id.
func (s *Session) EditContact(id, name, phoneNumber string) *adapter.Outcome {
	return s.dispatcher.EditContact(record.Contact{ID: id, Name: name, PhoneNumber: phoneNumber})
}

// RemoveContact deletes contact id.
func (s *Session) RemoveContact(id string) *adapter.Outcome {
	return s.dispatcher.RemoveContact(record.Contact{ID: id})
}

// Close disposes the store and silences the dispatcher. Safe to call more
// than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.dispatcher.Close()
		s.store.Dispose()
	})
}
