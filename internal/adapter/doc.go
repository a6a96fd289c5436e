// Package adapter defines the capability contract every backend variant
// implements, together with the pieces shared by all variants: the snapshot
// stream, the write outcome future and the error taxonomy.
//
// Two variants exist:
//   - documents: a flat collection of independently addressed documents
//   - tree: the children of a single node in a hierarchical database
//
// Shared code never branches on which variant it holds. Everything that
// differs between backends (key allocation, how a malformed entry is treated,
// how "update of a missing record" is detected) lives inside the variant.
//
// Each variant receives its backend connection at construction time; there is
// no ambient client.
package adapter
