package treedb

import "errors"

var (
	// ErrPermissionDenied is reported when the access rules reject a read or
	// write.
	ErrPermissionDenied = errors.New("treedb: permission denied")

	// ErrDisconnected is reported while the database is offline.
	ErrDisconnected = errors.New("treedb: disconnected")

	// ErrClosed is reported for requests made after Close.
	ErrClosed = errors.New("treedb: database closed")

	// ErrInvalidPath is reported for paths with empty segments or reserved
	// characters.
	ErrInvalidPath = errors.New("treedb: invalid path")

	// ErrInvalidValue is reported for values that are not JSON-shaped.
	ErrInvalidValue = errors.New("treedb: invalid value")
)
