package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocuments_PutLoadDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutDocument(ctx, "items", "b", map[string]any{"name": "Bob"}))
	require.NoError(t, s.PutDocument(ctx, "items", "a", map[string]any{"name": "Ana", "phoneNumber": "555"}))
	require.NoError(t, s.PutDocument(ctx, "other", "z", map[string]any{"name": "Zed"}))

	coll := loadCollection(t, s, "items")
	assert.Equal(t, map[string]map[string]any{
		"a": {"name": "Ana", "phoneNumber": "555"},
		"b": {"name": "Bob"},
	}, coll)

	existed, err := s.DeleteDocument(ctx, "items", "a")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = s.DeleteDocument(ctx, "items", "a")
	require.NoError(t, err)
	assert.False(t, existed, "second delete finds nothing")

	coll = loadCollection(t, s, "items")
	assert.Len(t, coll, 1)
}

func TestDocuments_PutReplaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutDocument(ctx, "items", "a", map[string]any{"name": "Ana", "phoneNumber": "555"}))
	require.NoError(t, s.PutDocument(ctx, "items", "a", map[string]any{"name": "Ana B"}))

	coll := loadCollection(t, s, "items")
	assert.Equal(t, map[string]any{"name": "Ana B"}, coll["a"])
}

func TestDocuments_LoadAllOrdered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutDocument(ctx, "items", "b", map[string]any{}))
	require.NoError(t, s.PutDocument(ctx, "archive", "x", map[string]any{}))
	require.NoError(t, s.PutDocument(ctx, "items", "a", map[string]any{}))

	docs, err := s.LoadAllDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "archive/x", docs[0].Collection+"/"+docs[0].ID)
	assert.Equal(t, "items/a", docs[1].Collection+"/"+docs[1].ID)
	assert.Equal(t, "items/b", docs[2].Collection+"/"+docs[2].ID)
}

func TestDocuments_SurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.PutDocument(ctx, "items", "a", map[string]any{"name": "Ana"}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	coll := loadCollection(t, s2, "items")
	assert.Equal(t, "Ana", coll["a"]["name"])
}
