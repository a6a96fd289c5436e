package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactFields(t *testing.T) {
	f := ContactFields("Ana", "555")
	assert.Equal(t, Fields{"name": "Ana", "phoneNumber": "555"}, f)

	c := Contact{ID: "a", Name: "Ana", PhoneNumber: "555"}
	assert.Equal(t, f, c.Fields())
	assert.Equal(t, map[string]any{"name": "Ana", "phoneNumber": "555"}, f.Values())
}

func TestClone_NilBecomesEmpty(t *testing.T) {
	out := Clone(nil)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestClone_IsIndependent(t *testing.T) {
	in := []Contact{{ID: "a", Name: "Ana"}}
	out := Clone(in)
	out[0].Name = "changed"
	assert.Equal(t, "Ana", in[0].Name)
}

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"no html escaping", "<a&b>", `"<a&b>"`},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"bool", true, "true"},
		{"empty array", []any{}, "[]"},
		{"sorted keys", map[string]any{"z": 1, "a": 2}, `{"a":2,"z":1}`},
		{"contact", Contact{ID: "a", Name: "Ana", PhoneNumber: "555"}, `{"id":"a","name":"Ana","phoneNumber":"555"}`},
		{"contact list", []Contact{{ID: "x", Name: "Bob"}}, `[{"id":"x","name":"Bob","phoneNumber":""}]`},
		{"empty contact list", []Contact{}, "[]"},
		{"fields", Fields{"phoneNumber": "1", "name": "A"}, `{"name":"A","phoneNumber":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" followed by a combining acute accent normalizes to U+00E9.
	out, err := MarshalCanonical("Jose\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"Jos\u00e9\"", string(out))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"k": struct{}{}})
	assert.Error(t, err)
}
