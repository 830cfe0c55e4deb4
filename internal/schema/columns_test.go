package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCandidates_DatePreferenceOrder(t *testing.T) {
	d := DefaultCandidates()
	// Explicit activity-date fields come before date-only, then generic date.
	require.GreaterOrEqual(t, len(d.Date), 3)
	assert.Equal(t, "activity_date", d.Date[0])
	assert.Equal(t, "date", d.Date[len(d.Date)-1])
}

func TestLoadCandidates_OverridesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "columns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
columns:
  join_key:
    - crm_party_ref
  first_name:
    - given_name
`), 0o644))

	cands, err := LoadCandidates(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"crm_party_ref"}, cands.JoinKey)
	assert.Equal(t, []string{"given_name"}, cands.FirstName)
	// Untouched lists keep their defaults.
	assert.Equal(t, DefaultCandidates().LastName, cands.LastName)
	assert.Equal(t, DefaultCandidates().Affinity, cands.Affinity)
}

func TestLoadCandidates_MissingFile(t *testing.T) {
	_, err := LoadCandidates(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadCandidates_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("columns: [not a map"), 0o644))

	_, err := LoadCandidates(path)
	assert.Error(t, err)
}
