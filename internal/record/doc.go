// Package record defines the contact record shared by every layer of the
// sync core, plus the write payloads sent to backends.
//
// A Contact only ever comes into existence by being mapped out of a backend
// snapshot. The core never assigns an ID itself; backends allocate IDs when a
// create is accepted.
//
// # Canonical JSON
//
// MarshalCanonical produces deterministic JSON (sorted keys, NFC-normalized
// strings, no HTML escaping). It is used wherever output is compared byte for
// byte: golden traces and machine-readable CLI output.
package record
