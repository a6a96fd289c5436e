// Package docdb is an in-process document-collection database.
//
// Records are documents addressed by (collection path, document id). A
// collection listener receives the full, id-ordered list of documents of
// that collection on registration and again after every change.
//
// Writes are applied asynchronously on the client's callback goroutine in the
// order they were issued, and report completion through a callback on that
// same goroutine. AddDocument allocates the document id on the caller's side
// before the write is sent.
//
// Optional durability is provided by internal/store (WithStorage).
package docdb
