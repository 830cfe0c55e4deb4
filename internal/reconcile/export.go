package reconcile

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/accounts-cli/internal/model"
	"github.com/sells-group/accounts-cli/internal/schema"
)

// BuildExport generalizes the profile build to a set of accounts with a
// date-range filter, producing the two export-ready record sets.
//
// The activity sheet is filtered to rows whose calendar date falls inside
// [start, end] inclusive; time-of-day is discarded for the comparison and
// rows with unparsable or missing dates are excluded. Identifier extraction
// for the contact sheet runs over the unfiltered activity set, and contacts
// are never date-filtered: the full roster is always exported. All timestamp
// cells are stripped to zone-naive wall clock before the bundle is handed to
// a serializer.
func (s *Service) BuildExport(ctx context.Context, accounts []string, start, end time.Time) (*model.ExportBundle, error) {
	names := append([]string(nil), accounts...)
	sort.Strings(names)

	rs, err := s.store.ActivitiesByAccounts(ctx, names)
	if err != nil {
		return nil, err
	}
	if rs.Empty() {
		return nil, eris.Wrapf(model.ErrNotFound, "reconcile: no activity for accounts %v", names)
	}

	dateCol, err := schema.MustResolveColumn(rs.Columns, s.cols.Date, "activity date")
	if err != nil {
		return nil, err
	}

	startD, endD := dateOnly(start.UTC()), dateOnly(end.UTC())
	filtered := model.NewRowset(rs.Columns)
	for _, row := range rs.Rows {
		when := ParseTimestamp(row[dateCol])
		if when == nil {
			continue
		}
		d := dateOnly(*when)
		if d.Before(startD) || d.After(endD) {
			continue
		}
		// Replace the raw date cell with the parsed timestamp so the
		// serializer formats every row the same way.
		nr := make(map[string]any, len(row))
		for k, v := range row {
			nr[k] = v
		}
		nr[dateCol] = *when
		filtered.Rows = append(filtered.Rows, nr)
	}

	ids := s.exportIdentifiers(rs)
	contactRows, err := s.store.ContactsByIdentifiers(ctx, ids)
	if err != nil {
		return nil, err
	}

	bundle := &model.ExportBundle{
		ID:         uuid.New().String(),
		Accounts:   names,
		Start:      startD,
		End:        endD,
		Activities: filtered.StripZones(),
		Contacts:   contactRows.StripZones(),
	}

	s.log.Info("export built",
		zap.String("export_id", bundle.ID),
		zap.Int("accounts", len(names)),
		zap.Int("activity_rows", len(bundle.Activities.Rows)),
		zap.Int("contact_rows", len(bundle.Contacts.Rows)),
	)
	return bundle, nil
}

// exportIdentifiers extracts normalized identifiers from the unfiltered
// activity rowset. No identifier column means no contact sheet rows.
func (s *Service) exportIdentifiers(rs *model.Rowset) []string {
	idCol, ok := schema.ResolveColumn(rs.Columns, s.cols.Identifier)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	for _, row := range rs.Rows {
		raw := cellString(row[idCol])
		if raw == "" {
			continue
		}
		seen[schema.NormalizeIdentifier(raw)] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
