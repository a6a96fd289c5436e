package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_SaveLoad(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, found, err := s.LoadTree(ctx, "default")
	require.NoError(t, err)
	assert.False(t, found)

	tree := map[string]any{
		"items": map[string]any{
			"k1": map[string]any{"name": "Bob"},
		},
	}
	require.NoError(t, s.SaveTree(ctx, "default", tree))

	got, found, err := s.LoadTree(ctx, "default")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, tree, got)
}

func TestTree_SaveNilDeletes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTree(ctx, "default", map[string]any{"a": "b"}))
	require.NoError(t, s.SaveTree(ctx, "default", nil))

	_, found, err := s.LoadTree(ctx, "default")
	require.NoError(t, err)
	assert.False(t, found)
}
