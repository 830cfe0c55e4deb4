// Package store provides the read-only query surface over the three
// reporting tables: the activity log, firmographics, and contacts. All
// access is synchronous; a failed query is terminal for the interaction and
// surfaces as a wrapped taxonomy error, never a partial result.
package store

import (
	"context"

	"github.com/sells-group/accounts-cli/internal/model"
)

// Reporting table names. The tables are owned by an external reporting
// database; Migrate only creates them for local development and tests.
const (
	TableActivity      = "activity_log"
	TableFirmographics = "firmographics"
	TableContacts      = "contacts"
)

// Store is the read-only data access interface consumed by the
// reconciliation pipeline. Identifier arguments are normalized values; each
// backend applies the equivalent normalization to the table side of the
// comparison at the query boundary.
type Store interface {
	// ActivitiesByAccount returns all activity rows whose account name
	// equals account exactly (case-sensitive, no fuzzy matching).
	ActivitiesByAccount(ctx context.Context, account string) (*model.Rowset, error)

	// ActivitiesByAccounts returns all activity rows for the account set.
	ActivitiesByAccounts(ctx context.Context, accounts []string) (*model.Rowset, error)

	// FirmographicsByIdentifiers returns firmographic rows whose normalized
	// customer identifier is in ids.
	FirmographicsByIdentifiers(ctx context.Context, ids []string) (*model.Rowset, error)

	// ContactsByIdentifiers returns contact rows whose normalized join key
	// is in ids. The join-key column is resolved per configured candidates.
	ContactsByIdentifiers(ctx context.Context, ids []string) (*model.Rowset, error)

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
