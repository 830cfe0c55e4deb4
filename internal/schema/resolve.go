package schema

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/accounts-cli/internal/model"
)

// ResolveColumn finds the source spelling of a semantically-known column.
// Matching is case-insensitive and candidate order is priority order: the
// first candidate with a match among columns wins. The source spelling is
// returned so callers can address the column as the table actually names it.
func ResolveColumn(columns []string, candidates []string) (string, bool) {
	for _, cand := range candidates {
		for _, col := range columns {
			if strings.EqualFold(col, cand) {
				return col, true
			}
		}
	}
	return "", false
}

// MustResolveColumn is ResolveColumn for required columns: failure is a
// SchemaMismatch, terminal for the current view.
func MustResolveColumn(columns []string, candidates []string, what string) (string, error) {
	col, ok := ResolveColumn(columns, candidates)
	if !ok {
		return "", eris.Wrapf(model.ErrSchemaMismatch, "schema: no %s column among %v", what, columns)
	}
	return col, nil
}
