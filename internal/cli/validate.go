package cli

import (
	"fmt"
	"io"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/contactsync/internal/record"
)

// contactSchema constrains contact input before it reaches a backend.
// Backends accept any payload; the schema is the caller's contract.
const contactSchema = `
#Contact: {
	name:        string & !=""
	phoneNumber: string & =~"^[0-9+()\\- ]*$"
}
`

// ValidationError is one field rejected by the contact schema.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the output of the validate command.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidateContact checks name and phone number against the contact schema.
// It returns nil when both are acceptable.
func ValidateContact(name, phoneNumber string) []ValidationError {
	ctx := cuecontext.New()
	schema := ctx.CompileString(contactSchema, cue.Filename("contact.cue"))
	if err := schema.Err(); err != nil {
		return []ValidationError{{Field: "schema", Message: err.Error()}}
	}

	input := ctx.Encode(record.ContactFields(name, phoneNumber))
	v := schema.LookupPath(cue.ParsePath("#Contact")).Unify(input)

	err := v.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []ValidationError
	for _, e := range cueerrors.Errors(err) {
		field := "contact"
		if path := e.Path(); len(path) > 0 {
			field = path[len(path)-1]
		}
		format, args := e.Msg()
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		})
	}
	return errs
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <name> [phone]",
		Short: "Check contact fields without writing",
		Long: `Check a name and phone number against the contact schema.

The name must be non-empty. The phone number may be empty or contain digits,
spaces and the characters + ( ) -.

Exit codes:
  0 - Valid
  1 - Invalid`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], optionalArg(args, 1), cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, name, phoneNumber string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	errs := ValidateContact(name, phoneNumber)
	result := ValidationResult{Valid: len(errs) == 0, Errors: errs}
	err := formatter.Render(result, func(w io.Writer) {
		if result.Valid {
			fmt.Fprintln(w, "✓ Contact valid")
			return
		}
		fmt.Fprintln(w, "✗ Contact invalid")
		for _, e := range errs {
			fmt.Fprintf(w, "  %s: %s\n", e.Field, e.Message)
		}
	})
	if err != nil {
		return err
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}
	return nil
}

// checkContact reports invalid input for add and edit.
func checkContact(formatter *OutputFormatter, name, phoneNumber string) error {
	errs := ValidateContact(name, phoneNumber)
	if len(errs) == 0 {
		return nil
	}
	_ = formatter.Error(ErrCodeInvalidInput, fmt.Sprintf("%s: %s", errs[0].Field, errs[0].Message), errs)
	return NewExitError(ExitFailure, fmt.Sprintf("invalid contact: %d error(s)", len(errs)))
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
