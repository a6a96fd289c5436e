// Package backend holds the pieces shared by the in-process databases in
// docdb and treedb: listener registrations and access rules.
//
// The two databases stand in for hosted backends. Each runs its own callback
// goroutine (a loop.Loop), applies writes there in arrival order, and pushes
// full snapshots to listeners from that goroutine. Callers never receive a
// callback on their own goroutine.
package backend
