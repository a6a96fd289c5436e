package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/contactsync/internal/record"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, actual %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages. refs resolves contact refs to ids.
func EvaluateAssertions(result *Result, assertions []Assertion, refs map[string]string) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertFinalList:
			err = assertFinalList(result.Final, a, refs)
		case AssertFinalContains:
			err = assertFinalContains(result.Final, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertFinalList(final []record.Contact, a Assertion, refs map[string]string) error {
	if matchContacts(final, a.Contacts, refs) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalList,
		Expected: formatExpected(a.Contacts, refs),
		Actual:   formatContacts(final),
	}
}

func assertFinalContains(final []record.Contact, a Assertion) error {
	for _, c := range final {
		if c.Name == a.Name && (a.Phone == "" || c.PhoneNumber == a.Phone) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertFinalContains,
		Expected: fmt.Sprintf("a contact named %q", a.Name),
		Actual:   formatContacts(final),
	}
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if ev.Op == a.Op && (a.Code == "" || ev.Code == a.Code) {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	what := a.Op
	if a.Code != "" {
		what += " with " + a.Code
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d x %s", a.Count, what),
		Actual:   strconv.Itoa(n),
	}
}

// matchContacts reports whether list equals want, in order. Ids are only
// compared where want names one.
func matchContacts(list []record.Contact, want []ExpectedContact, refs map[string]string) bool {
	if len(list) != len(want) {
		return false
	}
	for i, w := range want {
		c := list[i]
		if id := expectedID(w, refs); id != "" && c.ID != id {
			return false
		}
		if c.Name != w.Name || c.PhoneNumber != w.Phone {
			return false
		}
	}
	return true
}

func expectedID(w ExpectedContact, refs map[string]string) string {
	if w.Ref != "" {
		return refs[w.Ref]
	}
	return w.ID
}

// formatContact renders a contact as id:"name"/"phone".
func formatContact(c record.Contact) string {
	return c.ID + ":" + strconv.Quote(c.Name) + "/" + strconv.Quote(c.PhoneNumber)
}

func formatContacts(list []record.Contact) string {
	parts := make([]string, len(list))
	for i, c := range list {
		parts[i] = formatContact(c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatExpected(want []ExpectedContact, refs map[string]string) string {
	parts := make([]string, len(want))
	for i, w := range want {
		id := expectedID(w, refs)
		if id == "" {
			id = "*"
		}
		parts[i] = formatContact(record.Contact{ID: id, Name: w.Name, PhoneNumber: w.Phone})
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
