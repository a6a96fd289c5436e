package documents

import (
	"fmt"
	"log/slog"

	"github.com/roach88/contactsync/internal/adapter"
	"github.com/roach88/contactsync/internal/backend/docdb"
	"github.com/roach88/contactsync/internal/record"
)

// Name identifies this backend family.
const Name = "documents"

// Adapter implements adapter.Adapter over a document database.
type Adapter struct {
	client *docdb.Client
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

// New wraps client. The caller keeps ownership of client.
func New(client *docdb.Client, opts ...Option) *Adapter {
	a := &Adapter{client: client, logger: slog.Default()}
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
	if err := docdb.ValidateCollectionPath(path); err != nil {
		return nil, translate("subscribe", path, "", err)
	}

	stream := adapter.NewStream(nil)
	reg := a.client.Collection(path).AddSnapshotListener(func(qs *docdb.QuerySnapshot, err error) {
		if err != nil {
			if onError != nil {
				onError(translate("subscribe", path, "", err))
			}
			return
		}
		stream.Push(FromQuery(qs))
	})
	stream.SetDetach(reg.Remove)

	a.logger.Debug("subscribed", "backend", Name, "path", path)
	return stream, nil
}

// Map implements adapter.Adapter. Every document becomes a contact; a name or
// phone number that is missing or not a string becomes "".
//
// Panics if snap was not produced by this adapter.
func (a *Adapter) Map(snap adapter.Snapshot) []record.Contact {
	s, ok := snap.(*Snapshot)
	if !ok {
		panic(fmt.Sprintf("documents: cannot map snapshot of type %T", snap))
	}

	out := make([]record.Contact, 0, len(s.Documents))
	for _, d := range s.Documents {
		name, _ := d.Fields[record.FieldName].(string)
		phone, _ := d.Fields[record.FieldPhoneNumber].(string)
		out = append(out, record.Contact{ID: d.ID, Name: name, PhoneNumber: phone})
	}
	return out
}

// Create implements adapter.Adapter. The document id is allocated on this
// side before the write is sent.
func (a *Adapter) Create(path string, fields record.Fields) *adapter.Outcome {
	ref := a.client.Collection(path).NewDoc()
	o := adapter.NewOutcomeFor(ref.ID())
	ref.Set(fields.Values(), func(err error) {
		o.Resolve(translate("create", path, ref.ID(), err))
	})
	return o
}

// Update implements adapter.Adapter.
func (a *Adapter) Update(path, id string, fields record.Fields) *adapter.Outcome {
	o := adapter.NewOutcomeFor(id)
	a.client.Collection(path).Doc(id).Update(fields.Values(), func(err error) {
		o.Resolve(translate("update", path, id, err))
	})
	return o
}

// Delete implements adapter.Adapter.
func (a *Adapter) Delete(path, id string) *adapter.Outcome {
	o := adapter.NewOutcomeFor(id)
	a.client.Collection(path).Doc(id).Delete(func(err error) {
		o.Resolve(translate("delete", path, id, err))
	})
	return o
}

// translate classifies a docdb error. A nil err stays nil.
func translate(op, path, id string, err error) error {
	if err == nil {
		return nil
	}
	code := adapter.ErrCodeUnknown
	switch docdb.StatusCode(err) {
	case docdb.CodeNotFound:
		code = adapter.ErrCodeNotFound
	case docdb.CodePermissionDenied:
		code = adapter.ErrCodePermissionDenied
	case docdb.CodeUnavailable, docdb.CodeCancelled:
		code = adapter.ErrCodeUnavailable
	case docdb.CodeInvalidArgument:
		code = adapter.ErrCodeInvalidArgument
	}
	return adapter.NewError(code, op, path, id, err)
}
