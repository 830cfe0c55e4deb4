package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "ACME1", "ACME1"},
		{"lowercase", "acme1", "ACME1"},
		{"whitespace", "  ACME1  ", "ACME1"},
		{"h-cit prefix", "H-CIT-ACME1", "ACME1"},
		{"h prefix", "H-ACME1", "ACME1"},
		{"cit prefix", "CIT-ACME1", "ACME1"},
		{"lowercase prefix", "h-cit-ABC", "ABC"},
		{"prefix stripped once only", "H-CIT-CIT-42", "CIT-42"},
		{"longest prefix wins", "H-CIT-123", "123"},
		{"prefix mid-string untouched", "X-H-CIT-1", "X-H-CIT-1"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeIdentifier(tt.in))
		})
	}
}

func TestNormalizeIdentifier_Idempotent(t *testing.T) {
	for _, in := range []string{"H-CIT-ACME1", "h-42", " cit-x ", "PLAIN", ""} {
		once := NormalizeIdentifier(in)
		assert.Equal(t, once, NormalizeIdentifier(once), "input %q", in)
	}
}

func TestNormalizeIdentifierPtr(t *testing.T) {
	assert.Nil(t, NormalizeIdentifierPtr(nil))

	raw := "h-cit-ABC"
	got := NormalizeIdentifierPtr(&raw)
	if assert.NotNil(t, got) {
		assert.Equal(t, "ABC", *got)
	}
}

func TestIdentifierNormalizeSQL(t *testing.T) {
	expr := IdentifierNormalizeSQL(`"Party_Number"`)
	assert.Contains(t, expr, `"Party_Number"`)
	// Alternation order mirrors identifierPrefixes: longest first.
	assert.Contains(t, expr, "H-CIT-|H-|CIT-")
}
