package treedb

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contactsync/internal/backend"
	"github.com/roach88/contactsync/internal/store"
	"github.com/roach88/contactsync/internal/testutil"
)

const waitTimeout = 2 * time.Second

type event struct {
	snap DataSnapshot
	err  error
}

func openTestDB(t *testing.T, opts ...Option) *Database {
	t.Helper()
	opts = append([]Option{
		WithKeyGenerator(testutil.NewSequenceIDs("key")),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	db, err := Open(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func observe(t *testing.T, ref *Ref) (<-chan event, *Registration) {
	t.Helper()
	events := make(chan event, 64)
	reg := ref.Observe(func(s DataSnapshot, err error) {
		events <- event{snap: s, err: err}
	})
	t.Cleanup(reg.Remove)
	return events, reg
}

func next(t *testing.T, events <-chan event) event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for observer event")
		return event{}
	}
}

func assertQuiet(t *testing.T, events <-chan event) {
	t.Helper()
	select {
	case ev := <-events:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func await(t *testing.T) (func(error), func() error) {
	t.Helper()
	ch := make(chan error, 1)
	return func(err error) { ch <- err }, func() error {
		select {
		case err := <-ch:
			return err
		case <-time.After(waitTimeout):
			t.Fatal("timed out waiting for write completion")
			return nil
		}
	}
}

func set(t *testing.T, ref *Ref, v any) {
	t.Helper()
	done, wait := await(t)
	ref.Set(v, done)
	require.NoError(t, wait())
}

func keys(s DataSnapshot) []string {
	var out []string
	for _, c := range s.Children() {
		out = append(out, c.Key)
	}
	return out
}

func TestObserve_InitialValueOfEmptyNode(t *testing.T) {
	db := openTestDB(t)
	events, _ := observe(t, db.Ref("items"))

	ev := next(t, events)
	require.NoError(t, ev.err)
	assert.Equal(t, "items", ev.snap.Key)
	assert.False(t, ev.snap.Exists())
	assert.Empty(t, ev.snap.Children())
}

func TestPush_AllocatesOrderedKeys(t *testing.T) {
	db := openTestDB(t)
	items := db.Ref("items")
	events, _ := observe(t, items)
	next(t, events)

	a := items.Push()
	b := items.Push()
	assert.Equal(t, "key-0001", a.Key())
	assert.Equal(t, "items/key-0002", b.Path())

	set(t, b, map[string]any{"name": "Bob"})
	set(t, a, map[string]any{"name": "Ana"})

	next(t, events)
	ev := next(t, events)
	assert.Equal(t, []string{"key-0001", "key-0002"}, keys(ev.snap))
	assert.Equal(t, "Ana", ev.snap.Child("key-0001/name").Value)
}

func TestSet_DescendantWriteNotifiesAncestor(t *testing.T) {
	db := openTestDB(t)
	set(t, db.Ref("items/a"), map[string]any{"name": "Ana", "phoneNumber": "1"})

	events, _ := observe(t, db.Ref("items"))
	next(t, events)

	set(t, db.Ref("items/a/phoneNumber"), "2")
	ev := next(t, events)
	assert.Equal(t, "2", ev.snap.Child("a/phoneNumber").Value)
}

func TestSet_AncestorWriteNotifiesDescendant(t *testing.T) {
	db := openTestDB(t)
	events, _ := observe(t, db.Ref("items/a/name"))
	assert.False(t, next(t, events).snap.Exists())

	set(t, db.Ref("items"), map[string]any{"a": map[string]any{"name": "Ana"}})
	ev := next(t, events)
	assert.Equal(t, "name", ev.snap.Key)
	assert.Equal(t, "Ana", ev.snap.Value)
}

func TestSet_UnrelatedOrUnchangedDoesNotNotify(t *testing.T) {
	db := openTestDB(t)
	set(t, db.Ref("items/a"), map[string]any{"name": "Ana"})

	events, _ := observe(t, db.Ref("items"))
	next(t, events)

	set(t, db.Ref("other/x"), "y")
	assertQuiet(t, events)

	set(t, db.Ref("items/a/name"), "Ana")
	assertQuiet(t, events)
}

func TestSet_NilAndEmptyObjectsPrune(t *testing.T) {
	db := openTestDB(t)
	set(t, db.Ref("items/a"), map[string]any{"name": "Ana"})

	set(t, db.Ref("items/a/name"), nil)
	snap, err := db.Ref("items").Get()
	require.NoError(t, err)
	assert.False(t, snap.Exists(), "removing the last leaf prunes its ancestors")

	set(t, db.Ref("items/b"), map[string]any{"inner": map[string]any{}})
	snap, err = db.Ref("items/b").Get()
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}

func TestSet_ArraysBecomeIndexedObjects(t *testing.T) {
	db := openTestDB(t)
	set(t, db.Ref("list"), []any{"x", "y"})

	snap, err := db.Ref("list").Get()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"0": "x", "1": "y"}, snap.Value)
}

func TestSet_InvalidValue(t *testing.T) {
	db := openTestDB(t)

	done, wait := await(t)
	db.Ref("items/a").Set(struct{}{}, done)
	assert.ErrorIs(t, wait(), ErrInvalidValue)

	done, wait = await(t)
	db.Ref("items/a").Set(map[string]any{"bad.key": "x"}, done)
	assert.ErrorIs(t, wait(), ErrInvalidValue)
}

func TestInvalidPath(t *testing.T) {
	db := openTestDB(t)

	done, wait := await(t)
	db.Ref("items//a").Set("x", done)
	assert.ErrorIs(t, wait(), ErrInvalidPath)

	_, err := db.Ref("items/$a").Get()
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestUpdate_MergesChildren(t *testing.T) {
	db := openTestDB(t)
	set(t, db.Ref("items/a"), map[string]any{"name": "Ana", "phoneNumber": "1"})

	done, wait := await(t)
	db.Ref("items/a").Update(map[string]any{"phoneNumber": "2", "note": "x"}, done)
	require.NoError(t, wait())

	snap, err := db.Ref("items/a").Get()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ana", "phoneNumber": "2", "note": "x"}, snap.Value)

	done, wait = await(t)
	db.Ref("items").Update(map[string]any{"a/note": nil}, done)
	require.NoError(t, wait())

	snap, err = db.Ref("items/a").Get()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ana", "phoneNumber": "2"}, snap.Value)
}

func TestRemove_MissingSucceeds(t *testing.T) {
	db := openTestDB(t)

	done, wait := await(t)
	db.Ref("items/missing").Remove(done)
	assert.NoError(t, wait())
}

func TestRunTransaction_Commit(t *testing.T) {
	db := openTestDB(t)
	set(t, db.Ref("items/a"), map[string]any{"name": "Ana"})

	type result struct {
		err       error
		committed bool
		snap      DataSnapshot
	}
	ch := make(chan result, 1)
	db.Ref("items/a").RunTransaction(func(current any) (any, bool) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		m["phoneNumber"] = "9"
		return m, true
	}, func(err error, committed bool, snap DataSnapshot) {
		ch <- result{err, committed, snap}
	})

	r := <-ch
	require.NoError(t, r.err)
	assert.True(t, r.committed)
	assert.Equal(t, map[string]any{"name": "Ana", "phoneNumber": "9"}, r.snap.Value)
}

func TestRunTransaction_AbortLeavesTreeAlone(t *testing.T) {
	db := openTestDB(t)
	events, _ := observe(t, db.Ref("items"))
	next(t, events)

	ch := make(chan bool, 1)
	db.Ref("items/missing").RunTransaction(func(current any) (any, bool) {
		assert.Nil(t, current)
		return nil, false
	}, func(err error, committed bool, _ DataSnapshot) {
		assert.NoError(t, err)
		ch <- committed
	})

	assert.False(t, <-ch)
	assertQuiet(t, events)
}

func TestOffline_ErrorsThenResync(t *testing.T) {
	db := openTestDB(t)
	events, _ := observe(t, db.Ref("items"))
	next(t, events)

	db.GoOffline()
	assert.ErrorIs(t, next(t, events).err, ErrDisconnected)

	done, wait := await(t)
	db.Ref("items/a").Set("x", done)
	assert.ErrorIs(t, wait(), ErrDisconnected)

	db.GoOnline()
	ev := next(t, events)
	require.NoError(t, ev.err)
	assert.False(t, ev.snap.Exists())
}

func TestRules(t *testing.T) {
	db := openTestDB(t)
	events, _ := observe(t, db.Ref("items"))
	next(t, events)

	db.SetRules(backend.Rules{ReadDenied: true, WriteDenied: true})
	assert.ErrorIs(t, next(t, events).err, ErrPermissionDenied)

	done, wait := await(t)
	db.Ref("items/a").Set("x", done)
	assert.ErrorIs(t, wait(), ErrPermissionDenied)

	db.SetRules(backend.AllowAll)
	ev := next(t, events)
	require.NoError(t, ev.err)
	assert.False(t, ev.snap.Exists())
}

func TestRegistration_Remove(t *testing.T) {
	db := openTestDB(t)
	events, reg := observe(t, db.Ref("items"))
	next(t, events)

	reg.Remove()
	reg.Remove()
	assert.Equal(t, 0, db.ListenerCount())

	set(t, db.Ref("items/a"), "x")
	assertQuiet(t, events)
}

func TestClose_LaterRequestsFail(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Close())

	done, wait := await(t)
	db.Ref("items/a").Set("x", done)
	assert.ErrorIs(t, wait(), ErrClosed)

	_, err := db.Ref("items").Get()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStorage_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.db")

	st1, err := store.Open(path)
	require.NoError(t, err)
	db1 := openTestDB(t, WithStorage(st1), WithName("contacts"))
	set(t, db1.Ref("items/a"), map[string]any{"name": "Ana"})
	set(t, db1.Ref("items/b"), map[string]any{"name": "Bob"})
	set(t, db1.Ref("items/b"), nil)
	require.NoError(t, db1.Close())
	require.NoError(t, st1.Close())

	st2, err := store.Open(path)
	require.NoError(t, err)
	defer st2.Close()

	db2 := openTestDB(t, WithStorage(st2), WithName("contacts"))
	snap, err := db2.Ref("items").Get()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys(snap))

	other := openTestDB(t, WithStorage(st2), WithName("other"))
	snap, err = other.Ref("items").Get()
	require.NoError(t, err)
	assert.False(t, snap.Exists(), "trees are stored per name")
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a := g.NewKey()
	b := g.NewKey()
	assert.Len(t, a, 36)
	assert.Less(t, a, b)
}
