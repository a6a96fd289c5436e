// Package treedb is an in-process hierarchical JSON-tree database.
//
// Data is one JSON tree addressed by slash-separated paths. An observer on a
// path receives the value at that path on registration and again whenever a
// write changes it, including writes to ancestors or descendants. Writes that
// leave the observed value unchanged do not notify.
//
// Setting a node to nil, or to an object whose children are all nil, removes
// it; empty objects never exist in the tree. Push allocates time-ordered
// keys, so pushed children list in insertion order.
//
// Like docdb, writes run on the database's own callback goroutine and report
// completion there. Optional durability is provided by internal/store.
package treedb
