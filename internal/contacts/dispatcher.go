package contacts

import (
	"log/slog"
	"sync/atomic"

	"github.com/roach88/contactsync/internal/adapter"
	"github.com/roach88/contactsync/internal/record"
)

// Dispatcher sends contact writes to the backend.
//
// Every command is fire-and-forget: it issues one adapter call and returns.
// The local list is never touched; a change becomes visible only when the
// backend pushes a snapshot containing it. Completions are logged, success
// at Info and failure at Error. There is no retry and no rollback.
type Dispatcher struct {
	adapter adapter.Adapter
	path    string
	logger  *slog.Logger
	closed  atomic.Bool
}

// NewDispatcher creates a dispatcher writing to path on a.
func NewDispatcher(a adapter.Adapter, path string, opts ...Option) *Dispatcher {
	cfg := newConfig(opts)
	return &Dispatcher{
		adapter: a,
		path:    path,
		logger:  cfg.logger.With("backend", a.Name(), "path", path),
	}
}

// AddContact asks the backend to create a contact. The returned outcome is
// for hosts that want to wait; ignoring it is fine.
func (d *Dispatcher) AddContact(name, phoneNumber string) *adapter.Outcome {
	o := d.adapter.Create(d.path, record.ContactFields(name, phoneNumber))
	d.watch("create", o)
	return o
}

// EditContact asks the backend to overwrite the name and phone number of
// c.ID.
func (d *Dispatcher) EditContact(c record.Contact) *adapter.Outcome {
	o := d.adapter.Update(d.path, c.ID, c.Fields())
	d.watch("update", o)
	return o
}

// RemoveContact asks the backend to delete c.ID.
func (d *Dispatcher) RemoveContact(c record.Contact) *adapter.Outcome {
	o := d.adapter.Delete(d.path, c.ID)
	d.watch("delete", o)
	return o
}

// Close stops reporting completions. Writes already sent still complete.
func (d *Dispatcher) Close() {
	d.closed.Store(true)
}

func (d *Dispatcher) watch(op string, o *adapter.Outcome) {
	go func() {
		<-o.Done()
		err := o.Err()
		switch {
		case d.closed.Load():
			d.logger.Debug("completion after close ignored", "op", op, "id", o.ID(), "error", err)
		case err != nil:
			d.logger.Error("write failed", "op", op, "id", o.ID(), "error", err)
		default:
			d.logger.Info("write accepted", "op", op, "id", o.ID())
		}
	}()
}
