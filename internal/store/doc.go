// Package store provides SQLite-backed durability for the in-process
// backends.
//
// The sync core itself never persists anything. This package sits behind
// the backends, the same way a hosted database keeps its own disk, so that a
// document collection or a tree survives restarts of the CLI.
//
// Tables:
//
//	documents(collection, doc_id, data)  PRIMARY KEY (collection, doc_id)
//	trees(name, data)                    PRIMARY KEY (name)
//
// data columns hold JSON. A tree is stored as one JSON value per root name.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
