package adapter

import (
	"context"
	"sync"
)

// Outcome is the one-shot result of an asynchronous write.
type Outcome struct {
	id   string
	once sync.Once
	done chan struct{}
	err  error
}

// NewOutcome returns an unresolved outcome.
func NewOutcome() *Outcome {
	return &Outcome{done: make(chan struct{})}
}

// NewOutcomeFor returns an unresolved outcome for a write addressing id.
func NewOutcomeFor(id string) *Outcome {
	o := NewOutcome()
	o.id = id
	return o
}

// ID returns the record id the write addresses. For Create it is the id the
// backend allocated, known before the write completes. Empty when the write
// was rejected before an id existed.
func (o *Outcome) ID() string {
	return o.id
}

// Failed returns an outcome already resolved with err.
func Failed(err error) *Outcome {
	o := NewOutcome()
	o.Resolve(err)
	return o
}

// Resolve completes the outcome. Only the first call has any effect.
func (o *Outcome) Resolve(err error) {
	o.once.Do(func() {
		o.err = err
		close(o.done)
	})
}

// Done is closed once the outcome is resolved.
func (o *Outcome) Done() <-chan struct{} {
	return o.done
}

// Err returns the write error. It is nil until Done is closed.
func (o *Outcome) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}

// Wait blocks until the outcome resolves or ctx ends.
func (o *Outcome) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
