package adapter

import (
	"context"
	"sync"
)

// Stream is the subscription handle returned by Subscribe: an unbounded,
// cancellable FIFO of snapshots fed by a backend listener.
//
// The backend side calls Push from its own goroutine; Push never blocks. The
// consumer calls Next. Cancel detaches the backend listener synchronously and
// discards anything not yet consumed.
type Stream struct {
	mu      sync.Mutex
	pending []Snapshot
	closed  bool
	signal  chan struct{}

	cancelOnce sync.Once
	detach     func()
}

// NewStream creates a stream. detach is called exactly once, by the first
// Cancel, and must not return until the backend guarantees no further pushes
// from that listener.
func NewStream(detach func()) *Stream {
	return &Stream{
		signal: make(chan struct{}, 1),
		detach: detach,
	}
}

// SetDetach installs the detach function after construction. Adapters use it
// when the backend registration only exists once the stream is wired up.
func (s *Stream) SetDetach(detach func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detach = detach
}

// Push appends a snapshot. Returns false once the stream is cancelled.
func (s *Stream) Push(snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.pending = append(s.pending, snap)

	select {
	case s.signal <- struct{}{}:
	default:
	}
	return true
}

// Next blocks until a snapshot is available, the stream is cancelled or ctx
// ends. ok is false in the latter two cases.
func (s *Stream) Next(ctx context.Context) (snap Snapshot, ok bool) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, false
		}
		if len(s.pending) > 0 {
			snap = s.pending[0]
			s.pending[0] = nil
			s.pending = s.pending[1:]
			s.mu.Unlock()
			return snap, true
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-s.signal:
		}
	}
}

// Cancel detaches the listener and closes the stream. Safe to call more than
// once; only the first call has any effect.
func (s *Stream) Cancel() {
	s.cancelOnce.Do(func() {
		s.mu.Lock()
		detach := s.detach
		s.mu.Unlock()

		// Detach first so that no push can race with the close below.
		if detach != nil {
			detach()
		}

		s.mu.Lock()
		s.closed = true
		s.pending = nil
		close(s.signal)
		s.mu.Unlock()
	})
}

// Cancelled reports whether Cancel has completed.
func (s *Stream) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
