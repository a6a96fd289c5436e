package adapter

import "github.com/roach88/contactsync/internal/record"

// Snapshot is an opaque, full, point-in-time view of every record under a
// subscribed path. Only the variant that produced it can map it.
type Snapshot interface {
	// Len returns the number of raw entries, including ones the mapper may drop.
	Len() int
}

// Adapter wraps one backend connection.
//
// All write operations are asynchronous: they return immediately with an
// Outcome that resolves when the backend accepts or rejects the write. A
// resolved Outcome says nothing about the local record list; the change only
// becomes visible through a later snapshot.
type Adapter interface {
	// Name identifies the backend family in logs and reports.
	Name() string

	// Subscribe registers a push listener on path. Every change at or under
	// path produces a full Snapshot on the returned stream. Listener errors
	// are passed to onError and do not end the stream.
	Subscribe(path string, onError func(error)) (*Stream, error)

	// Map converts a snapshot produced by this adapter into records, in the
	// order the backend presented them. Map is pure.
	Map(snap Snapshot) []record.Contact

	// Create asks the backend to store a new record under path. The backend
	// allocates the ID.
	Create(path string, fields record.Fields) *Outcome

	// Update merges fields into the existing record id under path. The
	// outcome fails with ErrCodeNotFound when the record does not exist.
	Update(path, id string, fields record.Fields) *Outcome

	// Delete removes record id under path. Deleting a missing record
	// succeeds.
	Delete(path, id string) *Outcome
}
