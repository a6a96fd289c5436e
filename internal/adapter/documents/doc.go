// Package documents adapts a docdb.Client to the adapter contract.
//
// The subscribed path is a collection; each document is one contact, keyed
// by its document id. Documents missing a name or phone number are kept with
// the field set to "".
package documents
