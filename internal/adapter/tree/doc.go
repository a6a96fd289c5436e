// Package tree adapts a treedb.Database to the adapter contract.
//
// The subscribed path is a node; each child of it is one contact, keyed by
// its child key. A child that is not an object, or whose name is missing or
// not a string, is dropped from the mapped list.
package tree
