package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// loadCollection returns the stored documents of one collection keyed by id.
func loadCollection(t *testing.T, s *Store, collection string) map[string]map[string]any {
	t.Helper()
	docs, err := s.LoadAllDocuments(context.Background())
	if err != nil {
		t.Fatalf("LoadAllDocuments() failed: %v", err)
	}
	out := make(map[string]map[string]any)
	for _, d := range docs {
		if d.Collection == collection {
			out[d.ID] = d.Data
		}
	}
	return out
}
