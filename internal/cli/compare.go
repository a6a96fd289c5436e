package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/contactsync/internal/harness"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Strict bool // fail when the backends behave differently
}

// BackendResult summarizes one backend's run in compare output.
type BackendResult struct {
	Backend string   `json:"backend"`
	Pass    bool     `json:"pass"`
	Errors  []string `json:"errors,omitempty"`
}

// CompareResult is the output of the compare command.
type CompareResult struct {
	Scenario    string          `json:"scenario"`
	Backends    []BackendResult `json:"backends"`
	Equivalent  bool            `json:"equivalent"`
	Differences []string        `json:"differences,omitempty"`
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <scenario.yaml>",
		Short: "Run a scenario on both backends and diff them",
		Long: `Run a YAML scenario against a fresh in-memory instance of every backend
and report where their behavior differs. --backend, --db and --path are
ignored; the scenario names its own path.

Exit codes:
  0 - Scenario passed on every backend
  1 - Scenario failed somewhere (or the backends differ, with --strict)
  2 - Command error (unreadable or invalid scenario)

Example:
  contactsync compare ./scenarios/offline_writes.yaml --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when the backends behave differently")

	return cmd
}

func runCompare(opts *CompareOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	formatter.VerboseLog("Running scenario %s on %v", scenario.Name, harness.Backends)

	var hopts []harness.Option
	if opts.Verbose {
		hopts = append(hopts, harness.WithLogger(opts.logger))
	}
	c, err := harness.Compare(commandContext(cmd), scenario, hopts...)
	if err != nil {
		_ = formatter.Error(ErrCodeBackend, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	result := CompareResult{
		Scenario:    c.Scenario,
		Equivalent:  c.Equivalent(),
		Differences: c.Differences,
	}
	for _, r := range c.Results {
		result.Backends = append(result.Backends, BackendResult{
			Backend: r.Backend,
			Pass:    r.Pass,
			Errors:  r.Errors,
		})
	}

	if err := formatter.Render(result, result.writeText); err != nil {
		return err
	}

	switch {
	case !c.Pass():
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", c.Scenario))
	case opts.Strict && !c.Equivalent():
		return NewExitError(ExitFailure, fmt.Sprintf("backends differ in %d place(s)", len(c.Differences)))
	}
	return nil
}

func (r CompareResult) writeText(w io.Writer) {
	fmt.Fprintf(w, "Scenario: %s\n", r.Scenario)
	for _, b := range r.Backends {
		mark := "✓"
		if !b.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "  %s %s\n", mark, b.Backend)
		for _, e := range b.Errors {
			fmt.Fprintf(w, "      %s\n", e)
		}
	}
	if r.Equivalent {
		fmt.Fprintln(w, "Backends equivalent")
		return
	}
	fmt.Fprintf(w, "Backends differ:\n")
	for _, d := range r.Differences {
		fmt.Fprintf(w, "  - %s\n", d)
	}
}
