package harness

import "github.com/roach88/contactsync/internal/record"

// TraceEvent is one executed step.
type TraceEvent struct {
	Seq int64  `json:"seq"`
	Op  string `json:"op"`

	// Ref and ID identify the contact a write addressed, or the key of a put.
	Ref string `json:"ref,omitempty"`
	ID  string `json:"id,omitempty"`

	// Code is the adapter error code of a failed write.
	Code string `json:"code,omitempty"`

	// Contacts is the live list an expect step observed.
	Contacts []record.Contact `json:"contacts,omitempty"`
}

// Result is the outcome of running a scenario on one backend.
type Result struct {
	// Backend is the adapter name.
	Backend string `json:"backend"`

	// Pass is true when every step and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Final is the settled list after the last step.
	Final []record.Contact `json:"final"`

	// Errors describes every failed step or assertion.
	Errors []string `json:"errors,omitempty"`

	// SubscriptionErrors counts errors reported by the backend listener.
	SubscriptionErrors int `json:"subscription_errors"`
}

// NewResult creates a passing result for backend.
func NewResult(backend string) *Result {
	return &Result{
		Backend: backend,
		Pass:    true,
		Trace:   []TraceEvent{},
		Final:   []record.Contact{},
		Errors:  []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
