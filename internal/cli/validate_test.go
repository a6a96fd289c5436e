package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidateContact(t *testing.T) {
	tests := []struct {
		name       string
		contact    [2]string
		wantFields []string
	}{
		{"name only", [2]string{"Ana", ""}, nil},
		{"full", [2]string{"Ana Lima", "+55 (11) 5555-0100"}, nil},
		{"empty name", [2]string{"", "555"}, []string{"name"}},
		{"letters in phone", [2]string{"Ana", "call me"}, []string{"phoneNumber"}},
		{"both", [2]string{"", "x"}, []string{"name", "phoneNumber"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateContact(tt.contact[0], tt.contact[1])
			if tt.wantFields == nil {
				assert.Empty(t, errs)
				return
			}
			got := fields(errs)
			for _, f := range tt.wantFields {
				assert.Contains(t, got, f)
			}
			for _, e := range errs {
				assert.NotEmpty(t, e.Message)
			}
		})
	}
}

func TestValidateCommand_Text(t *testing.T) {
	out, err := execute(t, "validate", "Ana", "555")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Contact valid")

	out, err = execute(t, "validate", "Ana", "five")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Contact invalid")
	assert.Contains(t, out, "phoneNumber:")
}

func TestValidateCommand_JSON(t *testing.T) {
	out, err := execute(t, "validate", "", "--format", "json")
	require.Error(t, err)

	result, _ := decode[ValidationResult](t, out)
	assert.False(t, result.Valid)
	assert.Contains(t, fields(result.Errors), "name")
}

func TestValidateCommand_Args(t *testing.T) {
	_, err := execute(t, "validate")
	assert.Error(t, err)

	_, err = execute(t, "validate", "a", "1", "extra")
	assert.Error(t, err)
}
