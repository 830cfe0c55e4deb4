package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/accounts-cli/internal/model"
)

func TestResolveColumn(t *testing.T) {
	tests := []struct {
		name       string
		columns    []string
		candidates []string
		want       string
		ok         bool
	}{
		{
			name:       "case-insensitive match returns source spelling",
			columns:    []string{"Last_Name", "Other"},
			candidates: []string{"Last Name", "last_name"},
			want:       "Last_Name",
			ok:         true,
		},
		{
			name:       "candidate priority order wins",
			columns:    []string{"party_id", "party_number"},
			candidates: []string{"party_number", "party_id"},
			want:       "party_number",
			ok:         true,
		},
		{
			name:       "exact case preserved",
			columns:    []string{"First Name"},
			candidates: []string{"first name"},
			want:       "First Name",
			ok:         true,
		},
		{
			name:       "no match",
			columns:    []string{"foo", "bar"},
			candidates: []string{"first name"},
			ok:         false,
		},
		{
			name:       "empty columns",
			candidates: []string{"x"},
			ok:         false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveColumn(tt.columns, tt.candidates)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustResolveColumn(t *testing.T) {
	col, err := MustResolveColumn([]string{"Party_Number"}, []string{"party_number"}, "join key")
	require.NoError(t, err)
	assert.Equal(t, "Party_Number", col)

	_, err = MustResolveColumn([]string{"unrelated"}, []string{"party_number"}, "join key")
	require.Error(t, err)
	assert.True(t, model.IsSchemaMismatch(err))
	assert.Contains(t, err.Error(), "join key")
}
