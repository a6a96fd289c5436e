package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/contactsync/internal/adapter"
	"github.com/roach88/contactsync/internal/record"
)

// FakeSnapshot is the snapshot type FakeAdapter emits: the mapped list
// itself.
type FakeSnapshot struct {
	Records []record.Contact
}

// Len implements adapter.Snapshot.
func (s *FakeSnapshot) Len() int {
	return len(s.Records)
}

// Call records one write issued to a FakeAdapter.
type Call struct {
	Op     string
	Path   string
	ID     string
	Fields record.Fields
}

// FakeAdapter is a scriptable adapter.Adapter for tests.
//
// Snapshots and errors are only produced when the test calls Emit or Fail.
// Writes are recorded and their outcomes stay pending until Resolve.
// Emit also targets streams that were already cancelled, so tests can check
// that a disposed subscriber ignores late pushes.
//
// Thread-safety: FakeAdapter is safe for concurrent use via internal mutex.
type FakeAdapter struct {
	mu           sync.Mutex
	subs         []fakeSub
	calls        []Call
	pending      []*adapter.Outcome
	detached     int
	ids          *SequenceIDs
	subscribeErr error
}

type fakeSub struct {
	path    string
	stream  *adapter.Stream
	onError func(error)
}

// NewFakeAdapter creates a fake. Created records get ids "fake-0001", ...
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{ids: NewSequenceIDs("fake")}
}

// FailSubscribe makes the next Subscribe calls return err.
func (f *FakeAdapter) FailSubscribe(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribeErr = err
}

// Name implements adapter.Adapter.
func (f *FakeAdapter) Name() string {
	return "fake"
}

// Subscribe implements adapter.Adapter.
func (f *FakeAdapter) Subscribe(path string, onError func(error)) (*adapter.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	stream := adapter.NewStream(func() {
		f.mu.Lock()
		f.detached++
		f.mu.Unlock()
	})
	f.subs = append(f.subs, fakeSub{path: path, stream: stream, onError: onError})
	return stream, nil
}

// Map implements adapter.Adapter.
func (f *FakeAdapter) Map(snap adapter.Snapshot) []record.Contact {
	s, ok := snap.(*FakeSnapshot)
	if !ok {
		panic(fmt.Sprintf("testutil: cannot map snapshot of type %T", snap))
	}
	return record.Clone(s.Records)
}

// Create implements adapter.Adapter.
func (f *FakeAdapter) Create(path string, fields record.Fields) *adapter.Outcome {
	return f.record(Call{Op: "create", Path: path, ID: f.ids.NewID(), Fields: fields})
}

// Update implements adapter.Adapter.
func (f *FakeAdapter) Update(path, id string, fields record.Fields) *adapter.Outcome {
	return f.record(Call{Op: "update", Path: path, ID: id, Fields: fields})
}

// Delete implements adapter.Adapter.
func (f *FakeAdapter) Delete(path, id string) *adapter.Outcome {
	return f.record(Call{Op: "delete", Path: path, ID: id})
}

func (f *FakeAdapter) record(c Call) *adapter.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := adapter.NewOutcomeFor(c.ID)
	f.calls = append(f.calls, c)
	f.pending = append(f.pending, o)
	return o
}

// Emit pushes a snapshot holding records to every stream ever subscribed.
// It returns how many streams accepted it.
func (f *FakeAdapter) Emit(records ...record.Contact) int {
	f.mu.Lock()
	subs := append([]fakeSub(nil), f.subs...)
	f.mu.Unlock()

	n := 0
	for _, s := range subs {
		if s.stream.Push(&FakeSnapshot{Records: record.Clone(records)}) {
			n++
		}
	}
	return n
}

// Fail reports err to every subscriber's error handler.
func (f *FakeAdapter) Fail(err error) {
	f.mu.Lock()
	subs := append([]fakeSub(nil), f.subs...)
	f.mu.Unlock()

	for _, s := range subs {
		if s.onError != nil {
			s.onError(err)
		}
	}
}

// Resolve completes every pending write outcome with err.
func (f *FakeAdapter) Resolve(err error) {
	f.mu.Lock()
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()

	for _, o := range pending {
		o.Resolve(err)
	}
}

// Calls returns the writes issued so far.
func (f *FakeAdapter) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Subscriptions returns how many times Subscribe succeeded.
func (f *FakeAdapter) Subscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Detached returns how many streams have been cancelled.
func (f *FakeAdapter) Detached() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detached
}
