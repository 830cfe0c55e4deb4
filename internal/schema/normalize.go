// Package schema canonicalizes the loosely-formatted identifiers and
// inconsistently-cased column names found in the reporting tables, so that
// records from the activity, firmographic, and contact sources can be joined.
package schema

import "strings"

// identifierPrefixes are stripped during normalization. Checked in order,
// longest first, each applied at most once; "H-CIT-123" becomes "123" only
// because "H-CIT-" is tested before "H-".
var identifierPrefixes = []string{"H-CIT-", "H-", "CIT-"}

// NormalizeIdentifier canonicalizes a raw customer identifier: trims
// whitespace, uppercases, then strips a single known prefix. Idempotent.
// Both sides of every identifier join must go through this function.
func NormalizeIdentifier(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	for _, p := range identifierPrefixes {
		if strings.HasPrefix(s, p) {
			return strings.TrimPrefix(s, p)
		}
	}
	return s
}

// NormalizeIdentifierPtr is NormalizeIdentifier lifted over nullable input.
func NormalizeIdentifierPtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	s := NormalizeIdentifier(*raw)
	return &s
}

// IdentifierNormalizeSQL is the PostgreSQL expression equivalent of
// NormalizeIdentifier, applied to a quoted column reference. The regexp
// alternation mirrors identifierPrefixes so the two sides of a join stay
// comparable whether normalization happens in SQL or in process.
func IdentifierNormalizeSQL(quotedColumn string) string {
	return "regexp_replace(upper(btrim(" + quotedColumn + "::text)), '^(H-CIT-|H-|CIT-)', '')"
}
