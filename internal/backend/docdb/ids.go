package docdb

import "github.com/oklog/ulid/v2"

// IDGenerator allocates document ids.
type IDGenerator interface {
	NewID() string
}

// ULIDGenerator allocates ULIDs. They sort by creation time, so documents
// added by AddDocument list in insertion order.
//
// Thread-safety: ulid.Make is safe for concurrent use.
type ULIDGenerator struct{}

// NewID returns a new 26-character ULID.
func (ULIDGenerator) NewID() string {
	return ulid.Make().String()
}
