// Package harness runs scripted contact-list scenarios against the real
// sync core and compares how the two backends behave.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: add_edit_remove
//	description: "What this scenario checks"
//	path: items            # optional, defaults to "items"
//	steps:
//	  - add: { ref: ana, name: Ana, phone: "555" }
//	  - expect:
//	      - { ref: ana, name: Ana, phone: "555" }
//	  - edit: { ref: ana, name: Ana, phone: "777" }
//	  - edit: { id: ghost, name: X }
//	    error: NOT_FOUND
//	  - remove: { ref: ana }
//	  - put: { key: raw, value: { phoneNumber: "1" } }
//	  - offline: true
//	  - online: true
//	  - expect: []
//	assertions:
//	  - type: final_list
//	    contacts: []
//
// Each step does exactly one thing. Write steps wait for the backend to
// accept or reject the write and check the adapter error code against
// "error" (empty means success). A ref names the id the backend allocated
// for an add so later steps can address it. put writes a raw value straight
// into the backend, bypassing the adapter, to model data written by other
// clients. expect waits until the live list equals the given contacts.
//
// # Assertion Types
//
//   - final_list: the settled list equals contacts exactly
//   - final_contains: the settled list has a contact with name (and phone)
//   - trace_count: op appears count times in the trace, optionally with code
//
// # Determinism
//
// Every run uses a fresh in-memory backend with sequential ids ("id-0001",
// ...) and numbers trace events with a fresh loop.Clock, so the
// same scenario produces identical traces on every run and on both backends
// unless their behavior differs. Compare reports those differences.
package harness
