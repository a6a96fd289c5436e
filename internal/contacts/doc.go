// Package contacts is the real-time sync core: it keeps a local contact list
// mirroring one backend path and dispatches writes back to that backend.
//
// A Store subscribes through an adapter.Adapter, maps every pushed snapshot
// into records and replaces its list wholesale on its owner loop. A
// Dispatcher issues create, update and delete calls without touching the
// list; their effect only shows up through a later snapshot. A Session pairs
// the two for a presentation layer.
//
// Nothing here branches on which backend is in use.
package contacts
