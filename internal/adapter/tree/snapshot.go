package tree

import "github.com/roach88/contactsync/internal/backend/treedb"

// Child is one raw entry of a Snapshot.
type Child struct {
	Key   string
	Value any
}

// Snapshot is every child of the subscribed node, in the order the backend
// presented them.
type Snapshot struct {
	Children []Child
}

// Len implements adapter.Snapshot.
func (s *Snapshot) Len() int {
	return len(s.Children)
}

// FromData converts the value of the subscribed node into a Snapshot.
func FromData(ds treedb.DataSnapshot) *Snapshot {
	children := ds.Children()
	snap := &Snapshot{Children: make([]Child, 0, len(children))}
	for _, c := range children {
		snap.Children = append(snap.Children, Child{Key: c.Key, Value: c.Value})
	}
	return snap
}
