package treedb

import "github.com/google/uuid"

// KeyGenerator allocates push keys.
type KeyGenerator interface {
	NewKey() string
}

// UUIDv7Generator allocates UUIDv7 push keys. UUIDv7 embeds a millisecond
// timestamp in its leading bits and google/uuid keeps keys issued within one
// millisecond monotonic, so keys sort in allocation order.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewKey returns a hyphenated UUIDv7.
//
// Panics if the system random source fails.
func (UUIDv7Generator) NewKey() string {
	return uuid.Must(uuid.NewV7()).String()
}
