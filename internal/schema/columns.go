package schema

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Candidates holds the per-concern column candidate lists, in priority
// order, used to resolve canonical fields against whatever schema the
// reporting tables carry. Matching is case-insensitive, so variants only
// need to differ in more than letter case.
type Candidates struct {
	Account     []string `yaml:"account"`
	Identifier  []string `yaml:"identifier"`
	FirstName   []string `yaml:"first_name"`
	LastName    []string `yaml:"last_name"`
	Role        []string `yaml:"role"`
	Date        []string `yaml:"date"`
	Type        []string `yaml:"type"`
	Details     []string `yaml:"details"`
	JoinKey     []string `yaml:"join_key"`
	DisplayName []string `yaml:"display_name"`
	Title       []string `yaml:"title"`
	Affinity    []string `yaml:"affinity"`
}

// DefaultCandidates returns the column spellings observed across the source
// extracts. Date order encodes the preference: explicit activity-date field,
// then date-only, then generic date.
func DefaultCandidates() Candidates {
	return Candidates{
		Account:     []string{"account_name", "account name", "account"},
		Identifier:  []string{"customer_identifier", "customer identifier", "customer_id", "cit_id"},
		FirstName:   []string{"first name", "first_name", "firstname"},
		LastName:    []string{"last name", "last_name", "lastname"},
		Role:        []string{"buying role", "buying_role", "role"},
		Date:        []string{"activity_date", "activity date", "date_only", "date only", "date"},
		Type:        []string{"activity_type", "activity type", "type"},
		Details:     []string{"details", "description", "notes"},
		JoinKey:     []string{"party_number", "party number", "party_id", "party id"},
		DisplayName: []string{"full_name", "full name", "contact_name", "display_name", "name"},
		Title:       []string{"job_title", "job title", "title"},
		Affinity:    []string{"affinity_code", "affinity code", "affinity", "marketing_affinity"},
	}
}

// LoadCandidates reads candidate overrides from a YAML file. Lists absent
// from the file keep their defaults.
func LoadCandidates(path string) (Candidates, error) {
	cands := DefaultCandidates()

	data, err := os.ReadFile(path)
	if err != nil {
		return cands, eris.Wrapf(err, "schema: read columns config %s", path)
	}

	// The YAML has a top-level "columns" key.
	var wrapper struct {
		Columns Candidates `yaml:"columns"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return cands, eris.Wrap(err, "schema: parse columns config")
	}

	merge := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	merge(&cands.Account, wrapper.Columns.Account)
	merge(&cands.Identifier, wrapper.Columns.Identifier)
	merge(&cands.FirstName, wrapper.Columns.FirstName)
	merge(&cands.LastName, wrapper.Columns.LastName)
	merge(&cands.Role, wrapper.Columns.Role)
	merge(&cands.Date, wrapper.Columns.Date)
	merge(&cands.Type, wrapper.Columns.Type)
	merge(&cands.Details, wrapper.Columns.Details)
	merge(&cands.JoinKey, wrapper.Columns.JoinKey)
	merge(&cands.DisplayName, wrapper.Columns.DisplayName)
	merge(&cands.Title, wrapper.Columns.Title)
	merge(&cands.Affinity, wrapper.Columns.Affinity)

	return cands, nil
}
