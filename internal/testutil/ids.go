package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDs allocates predictable, lexically ordered ids for tests:
// "<prefix>-0001", "<prefix>-0002", ...
//
// Satisfies both docdb.IDGenerator and treedb.KeyGenerator.
//
// Thread-safety: SequenceIDs is safe for concurrent use via internal mutex.
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDs creates a generator. An empty prefix defaults to "id".
func NewSequenceIDs(prefix string) *SequenceIDs {
	if prefix == "" {
		prefix = "id"
	}
	return &SequenceIDs{prefix: prefix}
}

// NewID returns the next id.
func (g *SequenceIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// NewKey is NewID under the name tree databases use.
func (g *SequenceIDs) NewKey() string {
	return g.NewID()
}

// Issued returns how many ids have been handed out.
func (g *SequenceIDs) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}
