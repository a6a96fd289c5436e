package contacts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contactsync/internal/adapter"
	"github.com/roach88/contactsync/internal/adapter/documents"
	"github.com/roach88/contactsync/internal/adapter/tree"
	"github.com/roach88/contactsync/internal/backend/docdb"
	"github.com/roach88/contactsync/internal/backend/treedb"
	"github.com/roach88/contactsync/internal/record"
	"github.com/roach88/contactsync/internal/testutil"
)

// backendCase wires a real in-process backend behind its adapter. put writes
// a raw value at items/<key>, bypassing the adapter.
type backendCase struct {
	name string
	open func(t *testing.T) (adapter.Adapter, func(key string, value map[string]any))
}

func backendCases() []backendCase {
	return []backendCase{
		{
			name: documents.Name,
			open: func(t *testing.T) (adapter.Adapter, func(string, map[string]any)) {
				c, err := docdb.Open(context.Background(),
					docdb.WithIDGenerator(testutil.NewSequenceIDs("id")),
					docdb.WithLogger(quietLogger()))
				require.NoError(t, err)
				t.Cleanup(func() { c.Close() })
				put := func(key string, v map[string]any) {
					done := make(chan error, 1)
					c.Collection("items").Doc(key).Set(v, func(err error) { done <- err })
					require.NoError(t, <-done)
				}
				return documents.New(c, documents.WithLogger(quietLogger())), put
			},
		},
		{
			name: tree.Name,
			open: func(t *testing.T) (adapter.Adapter, func(string, map[string]any)) {
				db, err := treedb.Open(context.Background(),
					treedb.WithKeyGenerator(testutil.NewSequenceIDs("id")),
					treedb.WithLogger(quietLogger()))
				require.NoError(t, err)
				t.Cleanup(func() { db.Close() })
				put := func(key string, v map[string]any) {
					done := make(chan error, 1)
					db.Ref("items").Child(key).Set(v, func(err error) { done <- err })
					require.NoError(t, <-done)
				}
				return tree.New(db, tree.WithLogger(quietLogger())), put
			},
		},
	}
}

func waitOutcome(t *testing.T, o *adapter.Outcome) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	return o.Wait(ctx)
}

// waitFor returns the first list from ch satisfying match.
func waitFor(t *testing.T, ch <-chan []record.Contact, match func([]record.Contact) bool) []record.Contact {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case list := <-ch:
			if match(list) {
				return list
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching list")
			return nil
		}
	}
}

func TestSession_RoundTripOnBothBackends(t *testing.T) {
	for _, bc := range backendCases() {
		t.Run(bc.name, func(t *testing.T) {
			a, _ := bc.open(t)
			sess, err := Open(a, "items", WithLogger(quietLogger()))
			require.NoError(t, err)
			defer sess.Close()

			ch := make(chan []record.Contact, 64)
			sess.Observe(func(list []record.Contact) { ch <- list })

			o := sess.AddContact("Ana", "555")
			require.NoError(t, waitOutcome(t, o))
			want := []record.Contact{{ID: "id-0001", Name: "Ana", PhoneNumber: "555"}}
			assert.Equal(t, want, waitFor(t, ch, func(l []record.Contact) bool { return len(l) == 1 }))

			require.NoError(t, waitOutcome(t, sess.EditContact("id-0001", "Ana", "777")))
			waitFor(t, ch, func(l []record.Contact) bool { return len(l) == 1 && l[0].PhoneNumber == "777" })

			err = waitOutcome(t, sess.EditContact("ghost", "X", ""))
			assert.True(t, adapter.IsNotFound(err), "got %v", err)

			require.NoError(t, waitOutcome(t, sess.RemoveContact("id-0001")))
			waitFor(t, ch, func(l []record.Contact) bool { return len(l) == 0 })

			require.NoError(t, waitOutcome(t, sess.RemoveContact("id-0001")), "delete is idempotent")
		})
	}
}

func TestSession_MalformedEntryPolicy(t *testing.T) {
	want := map[string][]record.Contact{
		documents.Name: {
			{ID: "bob", Name: "Bob", PhoneNumber: ""},
			{ID: "nameless", Name: "", PhoneNumber: "1"},
		},
		tree.Name: {
			{ID: "bob", Name: "Bob", PhoneNumber: ""},
		},
	}

	for _, bc := range backendCases() {
		t.Run(bc.name, func(t *testing.T) {
			a, put := bc.open(t)
			sess, err := Open(a, "items", WithLogger(quietLogger()))
			require.NoError(t, err)
			defer sess.Close()

			ch := make(chan []record.Contact, 64)
			sess.Observe(func(list []record.Contact) { ch <- list })

			put("bob", map[string]any{"name": "Bob"})
			put("nameless", map[string]any{"phoneNumber": "1"})

			// Both writes have completed, so the last applied list is final.
			got := waitFor(t, ch, func(l []record.Contact) bool {
				return assert.ObjectsAreEqual(want[bc.name], l)
			})
			assert.Equal(t, want[bc.name], got)
		})
	}
}

func TestSession_DisposeStopsBackendListener(t *testing.T) {
	c, err := docdb.Open(context.Background(), docdb.WithLogger(quietLogger()))
	require.NoError(t, err)
	defer c.Close()

	sess, err := Open(documents.New(c, documents.WithLogger(quietLogger())), "items", WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, 1, c.ListenerCount())

	sess.Close()
	assert.Equal(t, 0, c.ListenerCount())

	o := documents.New(c).Create("items", record.ContactFields("Late", ""))
	require.NoError(t, waitOutcome(t, o))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, sess.Records())
}
