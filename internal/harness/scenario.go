package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/contactsync/internal/adapter"
)

// DefaultPath is the collection or node scenarios run against.
const DefaultPath = "items"

// Scenario is a scripted sequence of contact operations.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Path is the collection or node to subscribe to. Defaults to DefaultPath.
	Path string `yaml:"path,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated once the list has settled after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one scenario action. Exactly one action field is set.
type Step struct {
	Add     *WriteStep         `yaml:"add,omitempty"`
	Edit    *WriteStep         `yaml:"edit,omitempty"`
	Remove  *WriteStep         `yaml:"remove,omitempty"`
	Put     *PutStep           `yaml:"put,omitempty"`
	Offline bool               `yaml:"offline,omitempty"`
	Online  bool               `yaml:"online,omitempty"`
	Expect  *[]ExpectedContact `yaml:"expect,omitempty"`

	// Error is the adapter error code a write step must fail with. Empty
	// means the write must succeed.
	Error string `yaml:"error,omitempty"`
}

// WriteStep addresses a contact write. Add uses Ref to remember the new id;
// edit and remove address either a Ref or a literal ID.
type WriteStep struct {
	Ref   string `yaml:"ref,omitempty"`
	ID    string `yaml:"id,omitempty"`
	Name  string `yaml:"name,omitempty"`
	Phone string `yaml:"phone,omitempty"`
}

// PutStep writes a raw value under Key, bypassing the adapter.
type PutStep struct {
	Key   string         `yaml:"key"`
	Value map[string]any `yaml:"value"`
}

// ExpectedContact is one entry of an expected list. ID (or the id behind
// Ref) is only compared when given.
type ExpectedContact struct {
	Ref   string `yaml:"ref,omitempty"`
	ID    string `yaml:"id,omitempty"`
	Name  string `yaml:"name"`
	Phone string `yaml:"phone,omitempty"`
}

// Assertion validates the trace or the settled list.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Op and Code select trace events (trace_count).
	Op   string `yaml:"op,omitempty"`
	Code string `yaml:"code,omitempty"`

	// Count is the expected number of matching events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Name and Phone identify a contact (final_contains).
	Name  string `yaml:"name,omitempty"`
	Phone string `yaml:"phone,omitempty"`

	// Contacts is the exact expected list (final_list).
	Contacts []ExpectedContact `yaml:"contacts,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalList     = "final_list"
	AssertFinalContains = "final_contains"
	AssertTraceCount    = "trace_count"
)

// Step kinds, also used as trace ops.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpPut     = "put"
	OpOffline = "offline"
	OpOnline  = "online"
	OpExpect  = "expect"
)

// Kind returns the trace op of the step's action, or "" when no action or
// more than one action is set.
func (s Step) Kind() string {
	var kinds []string
	if s.Add != nil {
		kinds = append(kinds, OpCreate)
	}
	if s.Edit != nil {
		kinds = append(kinds, OpUpdate)
	}
	if s.Remove != nil {
		kinds = append(kinds, OpDelete)
	}
	if s.Put != nil {
		kinds = append(kinds, OpPut)
	}
	if s.Offline {
		kinds = append(kinds, OpOffline)
	}
	if s.Online {
		kinds = append(kinds, OpOnline)
	}
	if s.Expect != nil {
		kinds = append(kinds, OpExpect)
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. Unknown fields are rejected so typos
// fail loudly.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Path == "" {
		scenario.Path = DefaultPath
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

var validCodes = map[string]bool{
	string(adapter.ErrCodeNotFound):         true,
	string(adapter.ErrCodePermissionDenied): true,
	string(adapter.ErrCodeUnavailable):      true,
	string(adapter.ErrCodeInvalidArgument):  true,
	string(adapter.ErrCodeUnknown):          true,
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("steps list is required and must be non-empty")
	}

	refs := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(step, refs); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step, refs map[string]bool) error {
	kind := step.Kind()
	if kind == "" {
		return errors.New("exactly one of add, edit, remove, put, offline, online, expect is required")
	}
	if step.Error != "" {
		if !validCodes[step.Error] {
			return fmt.Errorf("unknown error code %q", step.Error)
		}
		if kind != OpCreate && kind != OpUpdate && kind != OpDelete {
			return fmt.Errorf("error is only valid on add, edit and remove")
		}
	}

	switch kind {
	case OpCreate:
		if step.Add.ID != "" {
			return errors.New("add: id is allocated by the backend")
		}
		if step.Add.Ref != "" {
			refs[step.Add.Ref] = true
		}
	case OpUpdate:
		return validateTarget("edit", step.Edit, refs)
	case OpDelete:
		return validateTarget("remove", step.Remove, refs)
	case OpPut:
		if step.Put.Key == "" {
			return errors.New("put: key is required")
		}
	case OpExpect:
		for i, c := range *step.Expect {
			if c.Ref != "" && !refs[c.Ref] {
				return fmt.Errorf("expect[%d]: unknown ref %q", i, c.Ref)
			}
		}
	}
	return nil
}

func validateTarget(op string, w *WriteStep, refs map[string]bool) error {
	switch {
	case w.Ref == "" && w.ID == "":
		return fmt.Errorf("%s: ref or id is required", op)
	case w.Ref != "" && w.ID != "":
		return fmt.Errorf("%s: ref and id are mutually exclusive", op)
	case w.Ref != "" && !refs[w.Ref]:
		return fmt.Errorf("%s: unknown ref %q", op, w.Ref)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertFinalList:
		return nil
	case AssertFinalContains:
		if a.Name == "" {
			return errors.New("name is required for final_contains")
		}
	case AssertTraceCount:
		if a.Op == "" {
			return errors.New("op is required for trace_count")
		}
		if a.Count < 0 {
			return errors.New("count must be non-negative for trace_count")
		}
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
