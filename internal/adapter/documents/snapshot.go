package documents

import "github.com/roach88/contactsync/internal/backend/docdb"

// Document is one raw entry of a Snapshot.
type Document struct {
	ID     string
	Fields map[string]any
}

// Snapshot is every document of the subscribed collection, in the order the
// backend presented them.
type Snapshot struct {
	Documents []Document
}

// Len implements adapter.Snapshot.
func (s *Snapshot) Len() int {
	return len(s.Documents)
}

// FromQuery converts a query snapshot into a Snapshot.
func FromQuery(qs *docdb.QuerySnapshot) *Snapshot {
	snap := &Snapshot{Documents: make([]Document, 0, qs.Size())}
	for _, d := range qs.Documents {
		snap.Documents = append(snap.Documents, Document{ID: d.ID, Fields: d.Data})
	}
	return snap
}
