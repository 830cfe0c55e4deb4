package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/accounts-cli/internal/model"
	"github.com/sells-group/accounts-cli/internal/schema"
)

// activityColumns is the resolved mapping from canonical activity fields to
// source column spellings, produced once per build and threaded through the
// remaining steps. Empty string means the source has no such column.
type activityColumns struct {
	account    string
	identifier string
	first      string
	last       string
	role       string
	date       string
	atype      string
	details    string
}

// resolveActivityColumns resolves the activity schema. First and last name
// are required; their absence is terminal for the current view.
func (s *Service) resolveActivityColumns(columns []string) (activityColumns, error) {
	var ac activityColumns
	var err error

	if ac.first, err = schema.MustResolveColumn(columns, s.cols.FirstName, "first name"); err != nil {
		return ac, err
	}
	if ac.last, err = schema.MustResolveColumn(columns, s.cols.LastName, "last name"); err != nil {
		return ac, err
	}

	ac.account, _ = schema.ResolveColumn(columns, s.cols.Account)
	ac.identifier, _ = schema.ResolveColumn(columns, s.cols.Identifier)
	ac.role, _ = schema.ResolveColumn(columns, s.cols.Role)
	ac.date, _ = schema.ResolveColumn(columns, s.cols.Date)
	ac.atype, _ = schema.ResolveColumn(columns, s.cols.Type)
	ac.details, _ = schema.ResolveColumn(columns, s.cols.Details)
	return ac, nil
}

// cellString renders a schema-flexible cell as text. nil maps to "".
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// activityFromRow canonicalizes one source row. The derived label is
// "{first} {last} - {role}" when a non-blank role exists, else
// "{first} {last}"; unnamed rows carry no label.
func activityFromRow(row map[string]any, ac activityColumns) model.ActivityRecord {
	rec := model.ActivityRecord{
		FirstName: strings.TrimSpace(cellString(row[ac.first])),
		LastName:  strings.TrimSpace(cellString(row[ac.last])),
	}
	if ac.account != "" {
		rec.Account = cellString(row[ac.account])
	}
	if ac.identifier != "" {
		if raw := strings.TrimSpace(cellString(row[ac.identifier])); raw != "" {
			rec.Identifier = &raw
		}
	}
	if ac.role != "" {
		rec.Role = strings.TrimSpace(cellString(row[ac.role]))
	}
	if ac.date != "" {
		rec.When = ParseTimestamp(row[ac.date])
	}
	if ac.atype != "" {
		rec.Type = cellString(row[ac.atype])
	}
	if ac.details != "" {
		rec.Details = cellString(row[ac.details])
	}

	if rec.Named() {
		rec.Label = rec.FirstName + " " + rec.LastName
		if rec.Role != "" {
			rec.Label += " - " + rec.Role
		}
	}
	return rec
}

// distinctIdentifiers extracts the normalized, deduplicated, sorted customer
// identifiers from an activity set. Unnamed rows participate: an account with
// only unnamed touches still surfaces firmographics and contacts.
func distinctIdentifiers(records []model.ActivityRecord) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec.Identifier == nil {
			continue
		}
		seen[schema.NormalizeIdentifier(*rec.Identifier)] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuildProfile assembles the consolidated profile for one account. Steps run
// in a fixed order, each a precondition for the next; no partial profile is
// returned on failure. An account with zero activity rows is ErrNotFound.
func (s *Service) BuildProfile(ctx context.Context, account string) (*model.AccountProfile, error) {
	rs, err := s.store.ActivitiesByAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	if rs.Empty() {
		return nil, eris.Wrapf(model.ErrNotFound, "reconcile: no activity for account %q", account)
	}

	ac, err := s.resolveActivityColumns(rs.Columns)
	if err != nil {
		return nil, err
	}

	var named, unnamed []model.ActivityRecord
	for _, row := range rs.Rows {
		rec := activityFromRow(row, ac)
		rec.Account = account
		if rec.Named() {
			named = append(named, rec)
		} else {
			unnamed = append(unnamed, rec)
		}
	}

	ids := distinctIdentifiers(append(append([]model.ActivityRecord{}, named...), unnamed...))

	firmo, err := s.store.FirmographicsByIdentifiers(ctx, ids)
	if err != nil {
		return nil, err
	}
	firmo = firmo.DropEmptyColumns()

	contactRows, err := s.store.ContactsByIdentifiers(ctx, ids)
	if err != nil {
		return nil, err
	}
	contacts, err := s.classifyContacts(contactRows, NewNameSet(named))
	if err != nil {
		return nil, err
	}

	sortActivities(named)
	sortActivities(unnamed)
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].DisplayName < contacts[j].DisplayName })

	s.log.Debug("profile built",
		zap.String("account", account),
		zap.Int("named", len(named)),
		zap.Int("unnamed", len(unnamed)),
		zap.Int("identifiers", len(ids)),
		zap.Int("firmographics", len(firmo.Rows)),
		zap.Int("contacts", len(contacts)),
	)

	return &model.AccountProfile{
		Account:       account,
		Named:         named,
		Unnamed:       unnamed,
		Identifiers:   ids,
		Firmographics: firmo,
		Contacts:      contacts,
	}, nil
}

// classifyContacts canonicalizes and classifies the contact rowset. The
// display name column is required once any rows exist; title and affinity
// degrade to blank.
func (s *Service) classifyContacts(rs *model.Rowset, engaged NameSet) ([]model.Contact, error) {
	if rs.Empty() {
		return nil, nil
	}

	nameCol, err := schema.MustResolveColumn(rs.Columns, s.cols.DisplayName, "contact display name")
	if err != nil {
		return nil, err
	}
	keyCol, err := schema.MustResolveColumn(rs.Columns, s.cols.JoinKey, "contact join key")
	if err != nil {
		return nil, err
	}
	titleCol, _ := schema.ResolveColumn(rs.Columns, s.cols.Title)
	affinityCol, _ := schema.ResolveColumn(rs.Columns, s.cols.Affinity)

	contacts := make([]model.Contact, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		c := model.Contact{
			RawKey:      cellString(row[keyCol]),
			DisplayName: strings.TrimSpace(cellString(row[nameCol])),
		}
		c.Key = schema.NormalizeIdentifier(c.RawKey)
		if titleCol != "" {
			c.Title = cellString(row[titleCol])
		}
		if affinityCol != "" {
			c.Affinity = cellString(row[affinityCol])
		}
		c.Engaged, c.StatusColor = Classify(engaged, c.DisplayName, c.Affinity)
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// sortActivities orders records newest first; rows without a parsed date
// sort after dated rows, ties break on label then details for determinism.
func sortActivities(records []model.ActivityRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch {
		case a.When == nil && b.When == nil:
			if a.Label != b.Label {
				return a.Label < b.Label
			}
			return a.Details < b.Details
		case a.When == nil:
			return false
		case b.When == nil:
			return true
		case !a.When.Equal(*b.When):
			return a.When.After(*b.When)
		default:
			return a.Label < b.Label
		}
	})
}
