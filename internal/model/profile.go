// Package model defines the record types produced by the reconciliation
// pipeline and shared across the store, reconcile, and export layers.
package model

import "time"

// StatusColor is the tri-state display color assigned to a contact.
type StatusColor string

const (
	// StatusPurple marks a contact with a non-blank marketing affinity code.
	StatusPurple StatusColor = "purple"
	// StatusYellow marks a contact matched against the named activity set.
	StatusYellow StatusColor = "yellow"
	// StatusRed marks a contact with no affinity and no engagement.
	StatusRed StatusColor = "red"
)

// ActivityRecord is one logged engagement event, canonicalized from the
// source schema by the profile builder.
type ActivityRecord struct {
	Account    string     `json:"account"`
	Identifier *string    `json:"identifier,omitempty"` // raw customer identifier as stored
	FirstName  string     `json:"first_name,omitempty"`
	LastName   string     `json:"last_name,omitempty"`
	Role       string     `json:"role,omitempty"` // buying-role code
	When       *time.Time `json:"when,omitempty"` // nil when the source value did not parse
	Type       string     `json:"type,omitempty"`
	Details    string     `json:"details,omitempty"`

	// Label is "{first} {last} - {role}" for named rows with a role,
	// "{first} {last}" otherwise. Empty for unnamed rows.
	Label string `json:"label,omitempty"`
}

// Named reports whether the record identifies a person.
func (a ActivityRecord) Named() bool {
	return a.FirstName != ""
}

// Contact is one person associated with a customer identifier, with the
// derived engagement flag and display color.
type Contact struct {
	RawKey      string      `json:"raw_key"`
	Key         string      `json:"key"` // normalized join key
	DisplayName string      `json:"display_name"`
	Title       string      `json:"title,omitempty"`
	Affinity    string      `json:"affinity,omitempty"`
	Engaged     bool        `json:"engaged"`
	StatusColor StatusColor `json:"status_color"`
}

// AccountProfile is the consolidated view for one account. It is built fresh
// per selection and never persisted.
type AccountProfile struct {
	Account       string           `json:"account"`
	Named         []ActivityRecord `json:"named"`
	Unnamed       []ActivityRecord `json:"unnamed"`
	Identifiers   []string         `json:"identifiers"` // normalized, sorted
	Firmographics *Rowset          `json:"firmographics"`
	Contacts      []Contact        `json:"contacts"`
}

// ActivityCount returns the total number of activity rows, named or not.
func (p *AccountProfile) ActivityCount() int {
	return len(p.Named) + len(p.Unnamed)
}

// ExportBundle holds the two record sets produced by the bulk export
// reconciler. All timestamp values are zone-naive by the time the bundle is
// handed to a serializer.
type ExportBundle struct {
	ID         string    `json:"id"`
	Accounts   []string  `json:"accounts"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Activities *Rowset   `json:"activities"` // date-filtered
	Contacts   *Rowset   `json:"contacts"`   // full roster, never date-filtered
}
