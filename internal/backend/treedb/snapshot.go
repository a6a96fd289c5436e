package treedb

import "sort"

// DataSnapshot is the value at one location at a point in time. Value is nil
// when nothing exists there; it must be treated as read-only.
type DataSnapshot struct {
	Key   string
	Value any
}

// Exists reports whether the location holds a value.
func (s DataSnapshot) Exists() bool {
	return s.Value != nil
}

// Len returns the number of children, or 0 for a leaf.
func (s DataSnapshot) Len() int {
	m, _ := s.Value.(map[string]any)
	return len(m)
}

// Children returns the child snapshots in ascending key order. A leaf has
// no children.
func (s DataSnapshot) Children() []DataSnapshot {
	m, ok := s.Value.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]DataSnapshot, 0, len(keys))
	for _, k := range keys {
		out = append(out, DataSnapshot{Key: k, Value: m[k]})
	}
	return out
}

// Child returns the snapshot at the relative path p.
func (s DataSnapshot) Child(p string) DataSnapshot {
	segs, err := parsePath(p)
	if err != nil || len(segs) == 0 {
		return DataSnapshot{Key: p}
	}
	return DataSnapshot{Key: segs[len(segs)-1], Value: getAt(s.Value, segs)}
}
