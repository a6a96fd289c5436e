package docdb

import "sort"

// DocumentSnapshot is the content of one document at a point in time.
// Data must be treated as read-only.
type DocumentSnapshot struct {
	ID   string
	Data map[string]any
}

// Field returns a raw field value.
func (d DocumentSnapshot) Field(name string) (any, bool) {
	v, ok := d.Data[name]
	return v, ok
}

// QuerySnapshot is every document of a collection at a point in time,
// ordered by document id.
type QuerySnapshot struct {
	Collection string
	Documents  []DocumentSnapshot
}

// Size returns the number of documents.
func (q *QuerySnapshot) Size() int {
	if q == nil {
		return 0
	}
	return len(q.Documents)
}

// buildSnapshot copies docs into an id-ordered snapshot.
func buildSnapshot(collection string, docs map[string]map[string]any) *QuerySnapshot {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	snap := &QuerySnapshot{
		Collection: collection,
		Documents:  make([]DocumentSnapshot, 0, len(ids)),
	}
	for _, id := range ids {
		snap.Documents = append(snap.Documents, DocumentSnapshot{
			ID:   id,
			Data: cloneMap(docs[id]),
		})
	}
	return snap
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return val
	}
}
