// Package reconcile implements the data reconciliation pipeline: it joins
// the activity log, firmographics, and contact roster on normalized
// identifiers, derives per-contact engagement and affinity classification,
// and produces a stable account profile or bulk export bundle.
package reconcile

import (
	"go.uber.org/zap"

	"github.com/sells-group/accounts-cli/internal/schema"
	"github.com/sells-group/accounts-cli/internal/store"
)

// Service runs profile and export builds against a Store. It holds no
// mutable state; repeated calls with identical inputs against an unchanged
// store yield identical output.
type Service struct {
	store store.Store
	cols  schema.Candidates
	log   *zap.Logger
}

// New creates a Service using the given column candidate lists.
func New(st store.Store, cols schema.Candidates) *Service {
	return &Service{
		store: st,
		cols:  cols,
		log:   zap.L().Named("reconcile"),
	}
}
