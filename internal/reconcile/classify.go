package reconcile

import (
	"strings"

	"github.com/sells-group/accounts-cli/internal/model"
)

type namePair struct {
	first string
	last  string
}

// NameSet holds the (first, last) pairs of the named activity partition,
// lower-cased and whitespace-trimmed, for engagement matching.
type NameSet map[namePair]struct{}

// NewNameSet builds the engaged-name set from named activity records.
func NewNameSet(named []model.ActivityRecord) NameSet {
	set := make(NameSet, len(named))
	for _, rec := range named {
		set[namePair{
			first: strings.ToLower(strings.TrimSpace(rec.FirstName)),
			last:  strings.ToLower(strings.TrimSpace(rec.LastName)),
		}] = struct{}{}
	}
	return set
}

// Contains reports whether the (first, last) pair is in the set,
// case-insensitively.
func (s NameSet) Contains(first, last string) bool {
	_, ok := s[namePair{
		first: strings.ToLower(strings.TrimSpace(first)),
		last:  strings.ToLower(strings.TrimSpace(last)),
	}]
	return ok
}

// Classify derives a contact's engagement flag and display color from the
// engaged-name set, the contact's display name, and its affinity code. Pure:
// re-derivable from its arguments alone.
//
// Engagement splits the display name on whitespace and compares (first
// token, last token); fewer than two tokens never matches. Color priority is
// fixed and mutually exclusive: affinity present wins, then engaged, else red.
func Classify(engaged NameSet, displayName, affinity string) (bool, model.StatusColor) {
	isEngaged := false
	if tokens := strings.Fields(displayName); len(tokens) >= 2 {
		isEngaged = engaged.Contains(tokens[0], tokens[len(tokens)-1])
	}

	switch {
	case affinityPresent(affinity):
		return isEngaged, model.StatusPurple
	case isEngaged:
		return true, model.StatusYellow
	default:
		return false, model.StatusRed
	}
}

// affinityPresent treats blank and the literal "nan" (a stringified null
// from the source extracts) as absent.
func affinityPresent(affinity string) bool {
	t := strings.TrimSpace(affinity)
	return t != "" && t != "nan"
}
