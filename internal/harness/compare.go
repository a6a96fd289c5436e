package harness

import (
	"context"
	"fmt"
	"slices"
)

// Comparison is the outcome of one scenario run on every backend.
type Comparison struct {
	Scenario string

	// Results are in Backends order.
	Results []*Result

	// Differences lists every step or final-list mismatch between the first
	// backend and each other backend.
	Differences []string
}

// Compare runs scenario on every backend in Backends and diffs the results.
func Compare(ctx context.Context, scenario *Scenario, opts ...Option) (*Comparison, error) {
	c := &Comparison{Scenario: scenario.Name, Differences: []string{}}
	for _, backend := range Backends {
		r, err := Run(ctx, scenario, backend, opts...)
		if err != nil {
			return nil, err
		}
		c.Results = append(c.Results, r)
	}
	for _, other := range c.Results[1:] {
		c.Differences = append(c.Differences, diffResults(c.Results[0], other)...)
	}
	return c, nil
}

// Equivalent reports whether every backend behaved the same.
func (c *Comparison) Equivalent() bool {
	return len(c.Differences) == 0
}

// Pass reports whether the scenario passed on every backend.
func (c *Comparison) Pass() bool {
	for _, r := range c.Results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func diffResults(a, b *Result) []string {
	var diffs []string
	n := max(len(a.Trace), len(b.Trace))
	for i := 0; i < n; i++ {
		if i >= len(a.Trace) || i >= len(b.Trace) {
			diffs = append(diffs, fmt.Sprintf("step %d: present on only one of %s, %s", i+1, a.Backend, b.Backend))
			continue
		}
		ea, eb := a.Trace[i], b.Trace[i]
		if ea.ID != eb.ID {
			diffs = append(diffs, fmt.Sprintf("step %d (%s): %s id %q, %s id %q",
				ea.Seq, ea.Op, a.Backend, ea.ID, b.Backend, eb.ID))
		}
		if ea.Code != eb.Code {
			diffs = append(diffs, fmt.Sprintf("step %d (%s): %s code %q, %s code %q",
				ea.Seq, ea.Op, a.Backend, ea.Code, b.Backend, eb.Code))
		}
		if !slices.Equal(ea.Contacts, eb.Contacts) {
			diffs = append(diffs, fmt.Sprintf("step %d (%s): %s saw %s, %s saw %s",
				ea.Seq, ea.Op, a.Backend, formatContacts(ea.Contacts), b.Backend, formatContacts(eb.Contacts)))
		}
	}
	if !slices.Equal(a.Final, b.Final) {
		diffs = append(diffs, fmt.Sprintf("final list: %s %s, %s %s",
			a.Backend, formatContacts(a.Final), b.Backend, formatContacts(b.Final)))
	}
	return diffs
}
