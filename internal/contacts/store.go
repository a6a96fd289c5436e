package contacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/contactsync/internal/adapter"
	"github.com/roach88/contactsync/internal/loop"
	"github.com/roach88/contactsync/internal/record"
)

// State is the lifecycle state of a Store.
type State int

const (
	// Idle: constructed, not yet subscribed.
	Idle State = iota
	// Listening: subscribed; snapshots replace the list.
	Listening
	// Stopped: subscription released. Terminal.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Store is the local record list for one subscribed path.
//
// Snapshots arrive on the backend's goroutine. A pump goroutine maps them
// and posts the result to the owner loop, where the list is replaced.
//
// Thread-safety model:
//   - Activate(), Dispose(): safe from any goroutine, including observers
//   - Records(), Revision(), State(), Observe(): safe from any goroutine
//   - the list is only written by owner-loop tasks
//
// INVARIANTS:
//   - at most one subscription per Store, released exactly once
//   - after any applied snapshot, Records() equals Map(snapshot)
//   - once Dispose returns, no snapshot changes the list
type Store struct {
	adapter  adapter.Adapter
	path     string
	owner    *loop.Loop
	ownsLoop bool
	clock    *loop.Clock
	logger   *slog.Logger
	onError  func(error)

	mu         sync.RWMutex
	state      State
	activating bool
	records    []record.Contact
	observers  []*observer
	stream     *adapter.Stream
	pumpDone   chan struct{}
}

type observer struct {
	fn func([]record.Contact)
}

// New creates an idle store for path on a.
func New(a adapter.Adapter, path string, opts ...Option) *Store {
	cfg := newConfig(opts)
	s := &Store{
		adapter: a,
		path:    path,
		owner:   cfg.owner,
		clock:   loop.NewClock(),
		logger:  cfg.logger.With("backend", a.Name(), "path", path),
		onError: cfg.onError,
		records: []record.Contact{},
	}
	if s.owner == nil {
		s.owner = loop.New(loop.WithName("contacts"), loop.WithLogger(cfg.logger))
		s.ownsLoop = true
	}
	return s
}

// Activate subscribes to the backend. A subscribe failure is returned and
// leaves the store Idle.
//
// Panics unless the store is Idle.
func (s *Store) Activate() error {
	s.mu.Lock()
	if s.state != Idle || s.activating {
		state := s.state
		s.mu.Unlock()
		panic(fmt.Sprintf("contacts: Activate on %s store", state))
	}
	s.activating = true
	s.mu.Unlock()

	stream, err := s.adapter.Subscribe(s.path, s.handleError)

	s.mu.Lock()
	s.activating = false
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("contacts: activate: %w", err)
	}
	if s.state != Idle {
		s.mu.Unlock()
		// Cancel waits for an in-flight delivery, which may itself be
		// waiting on s.mu in handleError.
		stream.Cancel()
		return errors.New("contacts: activate: store disposed while subscribing")
	}
	defer s.mu.Unlock()

	if s.ownsLoop {
		s.owner.Start(context.Background())
	}
	s.stream = stream
	s.pumpDone = make(chan struct{})
	s.state = Listening
	go s.pump(stream, s.pumpDone)

	s.logger.Debug("store listening")
	return nil
}

// Dispose releases the subscription. When Dispose returns the backend
// listener is detached and no later snapshot reaches the list. Writes
// already dispatched are not cancelled.
//
// Disposing an Idle store moves it straight to Stopped.
// Panics if the store is already Stopped.
func (s *Store) Dispose() {
	s.mu.Lock()
	if s.state == Stopped {
		s.mu.Unlock()
		panic("contacts: Dispose on stopped store")
	}
	s.state = Stopped
	stream, pumpDone := s.stream, s.pumpDone
	s.stream = nil
	s.observers = nil
	s.mu.Unlock()

	if stream != nil {
		stream.Cancel()
		<-pumpDone
	}
	// Dispose may run on the owner loop itself, so never wait for it here.
	if s.ownsLoop {
		s.owner.Stop()
	}
	s.logger.Debug("store stopped")
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Path returns the subscribed path.
func (s *Store) Path() string {
	return s.path
}

// Records returns a copy of the current list.
func (s *Store) Records() []record.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return record.Clone(s.records)
}

// Revision counts applied snapshots. It only increases.
func (s *Store) Revision() int64 {
	return s.clock.Current()
}

// Observe registers fn. fn runs on the owner loop: once with the current
// list, then after every replacement. The returned function unregisters fn.
func (s *Store) Observe(fn func([]record.Contact)) (cancel func()) {
	o := &observer{fn: fn}

	s.mu.Lock()
	if s.state == Stopped {
		s.mu.Unlock()
		return func() {}
	}
	s.observers = append(s.observers, o)
	s.mu.Unlock()

	s.owner.Post(func() {
		s.mu.RLock()
		live := s.observing(o)
		current := record.Clone(s.records)
		s.mu.RUnlock()
		if live {
			fn(current)
		}
	})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, item := range s.observers {
			if item == o {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) observing(o *observer) bool {
	for _, item := range s.observers {
		if item == o {
			return true
		}
	}
	return false
}

// pump maps snapshots off the backend goroutine and hands them to the owner
// loop in arrival order.
func (s *Store) pump(stream *adapter.Stream, done chan struct{}) {
	defer close(done)
	for {
		snap, ok := stream.Next(context.Background())
		if !ok {
			return
		}
		records := s.adapter.Map(snap)
		raw := snap.Len()
		if !s.owner.Post(func() { s.apply(records, raw) }) {
			s.logger.Debug("owner loop stopped, snapshot dropped")
		}
	}
}

// apply replaces the list. Runs on the owner loop.
func (s *Store) apply(records []record.Contact, raw int) {
	s.mu.Lock()
	if s.state != Listening {
		s.mu.Unlock()
		return
	}
	s.records = records
	rev := s.clock.Next()
	observers := append([]*observer(nil), s.observers...)
	s.mu.Unlock()

	s.logger.Debug("snapshot applied", "revision", rev, "count", len(records), "raw", raw)
	for _, o := range observers {
		o.fn(record.Clone(records))
	}
}

// handleError runs on the backend goroutine. The list keeps its last value.
func (s *Store) handleError(err error) {
	s.mu.RLock()
	stopped := s.state == Stopped
	s.mu.RUnlock()
	if stopped {
		return
	}

	s.logger.Warn("subscription error", "error", err)
	if s.onError == nil {
		return
	}
	s.owner.Post(func() {
		if s.State() == Listening {
			s.onError(err)
		}
	})
}
