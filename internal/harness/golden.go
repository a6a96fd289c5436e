package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/contactsync/internal/record"
)

// canonicalMap converts a comparison for canonical JSON serialization.
// Subscription error counts and error text are left out: both depend on
// timing, the golden file must not.
func (c *Comparison) canonicalMap() map[string]any {
	backends := make(map[string]any, len(c.Results))
	for _, r := range c.Results {
		trace := make([]any, len(r.Trace))
		for i, ev := range r.Trace {
			m := map[string]any{
				"seq": ev.Seq,
				"op":  ev.Op,
			}
			if ev.Ref != "" {
				m["ref"] = ev.Ref
			}
			if ev.ID != "" {
				m["id"] = ev.ID
			}
			if ev.Code != "" {
				m["code"] = ev.Code
			}
			if ev.Op == OpExpect {
				m["contacts"] = record.ListToAny(ev.Contacts)
			}
			trace[i] = m
		}
		backends[r.Backend] = map[string]any{
			"pass":  r.Pass,
			"trace": trace,
			"final": record.ListToAny(r.Final),
		}
	}

	return map[string]any{
		"scenario":    c.Scenario,
		"backends":    backends,
		"differences": c.Differences,
	}
}

// MarshalComparison renders c as canonical JSON.
func MarshalComparison(c *Comparison) ([]byte, error) {
	return record.MarshalCanonical(c.canonicalMap())
}

// RunWithGolden compares scenario across backends and checks the result
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) error {
	t.Helper()

	c, err := Compare(context.Background(), scenario, opts...)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, c)
}

// AssertGolden checks an existing comparison against its golden file.
func AssertGolden(t *testing.T, name string, c *Comparison) error {
	t.Helper()

	out, err := MarshalComparison(c)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, out)
	return nil
}
