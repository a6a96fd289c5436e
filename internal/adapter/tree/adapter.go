package tree

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/contactsync/internal/adapter"
	"github.com/roach88/contactsync/internal/backend/treedb"
	"github.com/roach88/contactsync/internal/record"
)

// Name identifies this backend family.
const Name = "tree"

// errAbsent is the cause attached to updates of a child that does not exist.
var errAbsent = errors.New("no child to update")

// Adapter implements adapter.Adapter over a tree database.
type Adapter struct {
	db     *treedb.Database
	logger *slog.Logger
}

var _ adapter.Adapter = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New wraps db. The caller keeps ownership of db.
func New(db *treedb.Database, opts ...Option) *Adapter {
	a := &Adapter{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements adapter.Adapter.
func (a *Adapter) Name() string {
	return Name
}

// Subscribe implements adapter.Adapter.
func (a *Adapter) Subscribe(path string, onError func(error)) (*adapter.Stream, error) {
	if err := treedb.ValidatePath(path); err != nil {
		return nil, translate("subscribe", path, "", err)
	}

	stream := adapter.NewStream(nil)
	reg := a.db.Ref(path).Observe(func(ds treedb.DataSnapshot, err error) {
		if err != nil {
			if onError != nil {
				onError(translate("subscribe", path, "", err))
			}
			return
		}
		stream.Push(FromData(ds))
	})
	stream.SetDetach(reg.Remove)

	a.logger.Debug("subscribed", "backend", Name, "path", path)
	return stream, nil
}

// Map implements adapter.Adapter. Children that are not objects or have no
// string name are dropped; a missing phone number becomes "".
//
// Panics if snap was not produced by this adapter.
func (a *Adapter) Map(snap adapter.Snapshot) []record.Contact {
	s, ok := snap.(*Snapshot)
	if !ok {
		panic(fmt.Sprintf("tree: cannot map snapshot of type %T", snap))
	}

	out := make([]record.Contact, 0, len(s.Children))
	for _, c := range s.Children {
		fields, ok := c.Value.(map[string]any)
		if !ok {
			continue
		}
		name, ok := fields[record.FieldName].(string)
		if !ok {
			continue
		}
		phone, _ := fields[record.FieldPhoneNumber].(string)
		out = append(out, record.Contact{ID: c.Key, Name: name, PhoneNumber: phone})
	}

	if dropped := len(s.Children) - len(out); dropped > 0 {
		a.logger.Debug("dropped malformed children", "backend", Name, "count", dropped)
	}
	return out
}

// Create implements adapter.Adapter. The child key is allocated on this side
// before the write is sent.
func (a *Adapter) Create(path string, fields record.Fields) *adapter.Outcome {
	if err := treedb.ValidatePath(path); err != nil {
		return adapter.Failed(translate("create", path, "", err))
	}
	ref := a.db.Ref(path).Push()
	o := adapter.NewOutcomeFor(ref.Key())
	ref.Set(fields.Values(), func(err error) {
		o.Resolve(translate("create", path, ref.Key(), err))
	})
	return o
}

// Update implements adapter.Adapter. The merge runs as a transaction that
// aborts when the child does not exist, so an update never recreates a
// deleted contact.
func (a *Adapter) Update(path, id string, fields record.Fields) *adapter.Outcome {
	o := adapter.NewOutcomeFor(id)
	if err := validate(path, id); err != nil {
		o.Resolve(translate("update", path, id, err))
		return o
	}

	a.db.Ref(path).Child(id).RunTransaction(func(current any) (any, bool) {
		existing, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		for k, v := range fields {
			existing[k] = v
		}
		return existing, true
	}, func(err error, committed bool, _ treedb.DataSnapshot) {
		switch {
		case err != nil:
			o.Resolve(translate("update", path, id, err))
		case !committed:
			o.Resolve(adapter.NewError(adapter.ErrCodeNotFound, "update", path, id, errAbsent))
		default:
			o.Resolve(nil)
		}
	})
	return o
}

// Delete implements adapter.Adapter.
func (a *Adapter) Delete(path, id string) *adapter.Outcome {
	o := adapter.NewOutcomeFor(id)
	if err := validate(path, id); err != nil {
		o.Resolve(translate("delete", path, id, err))
		return o
	}

	a.db.Ref(path).Child(id).Remove(func(err error) {
		o.Resolve(translate("delete", path, id, err))
	})
	return o
}

func validate(path, id string) error {
	if err := treedb.ValidatePath(path); err != nil {
		return err
	}
	return treedb.ValidateKey(id)
}

// translate classifies a treedb error. A nil err stays nil.
func translate(op, path, id string, err error) error {
	if err == nil {
		return nil
	}
	code := adapter.ErrCodeUnknown
	switch {
	case errors.Is(err, treedb.ErrPermissionDenied):
		code = adapter.ErrCodePermissionDenied
	case errors.Is(err, treedb.ErrDisconnected), errors.Is(err, treedb.ErrClosed):
		code = adapter.ErrCodeUnavailable
	case errors.Is(err, treedb.ErrInvalidPath), errors.Is(err, treedb.ErrInvalidValue):
		code = adapter.ErrCodeInvalidArgument
	}
	return adapter.NewError(code, op, path, id, err)
}
