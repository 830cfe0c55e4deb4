package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/accounts-cli/internal/model"
	"github.com/sells-group/accounts-cli/internal/schema"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// development and the behavioral test suite. SQLite has no regexp function
// by default, so identifier membership filters run through the Go normalizer
// after a parameterized select; the semantics match the Postgres pushdown.
type SQLiteStore struct {
	db   *sql.DB
	cols schema.Candidates
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, cols schema.Candidates) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, cols: cols}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return eris.Wrapf(model.ErrConnection, "sqlite: ping: %v", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// selectRowset runs a parameterized query and drains it into a Rowset.
// []byte cells are converted to string; database/sql reports TEXT that way.
func (s *SQLiteStore) selectRowset(ctx context.Context, query string, args ...any) (*model.Rowset, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(model.ErrConnection, "sqlite: query: %v", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrapf(model.ErrConnection, "sqlite: columns: %v", err)
	}

	rs := model.NewRowset(cols)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(model.ErrConnection, "sqlite: scan: %v", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(model.ErrConnection, "sqlite: iterate: %v", err)
	}
	return rs, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *SQLiteStore) tableColumns(ctx context.Context, table string) ([]string, error) {
	rs, err := s.selectRowset(ctx, `SELECT * FROM `+quoteIdent(table)+` LIMIT 0`)
	if err != nil {
		return nil, err
	}
	return rs.Columns, nil
}

func (s *SQLiteStore) ActivitiesByAccount(ctx context.Context, account string) (*model.Rowset, error) {
	cols, err := s.tableColumns(ctx, TableActivity)
	if err != nil {
		return nil, err
	}
	accountCol, err := schema.MustResolveColumn(cols, s.cols.Account, "account name")
	if err != nil {
		return nil, err
	}
	return s.selectRowset(ctx,
		`SELECT * FROM `+quoteIdent(TableActivity)+` WHERE `+quoteIdent(accountCol)+` = ?`,
		account,
	)
}

func (s *SQLiteStore) ActivitiesByAccounts(ctx context.Context, accounts []string) (*model.Rowset, error) {
	if len(accounts) == 0 {
		return model.NewRowset(nil), nil
	}
	cols, err := s.tableColumns(ctx, TableActivity)
	if err != nil {
		return nil, err
	}
	accountCol, err := schema.MustResolveColumn(cols, s.cols.Account, "account name")
	if err != nil {
		return nil, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(accounts)), ",")
	args := make([]any, len(accounts))
	for i, a := range accounts {
		args[i] = a
	}
	return s.selectRowset(ctx,
		`SELECT * FROM `+quoteIdent(TableActivity)+` WHERE `+quoteIdent(accountCol)+` IN (`+placeholders+`)`,
		args...,
	)
}

func (s *SQLiteStore) FirmographicsByIdentifiers(ctx context.Context, ids []string) (*model.Rowset, error) {
	return s.byNormalizedIdentifier(ctx, TableFirmographics, s.cols.Identifier, "customer identifier", ids)
}

func (s *SQLiteStore) ContactsByIdentifiers(ctx context.Context, ids []string) (*model.Rowset, error) {
	return s.byNormalizedIdentifier(ctx, TableContacts, s.cols.JoinKey, "join key", ids)
}

func (s *SQLiteStore) byNormalizedIdentifier(ctx context.Context, table string, candidates []string, what string, ids []string) (*model.Rowset, error) {
	if len(ids) == 0 {
		return model.NewRowset(nil), nil
	}
	cols, err := s.tableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	idCol, err := schema.MustResolveColumn(cols, candidates, what)
	if err != nil {
		return nil, err
	}

	all, err := s.selectRowset(ctx, `SELECT * FROM `+quoteIdent(table))
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	rs := model.NewRowset(all.Columns)
	for _, row := range all.Rows {
		raw, ok := row[idCol].(string)
		if !ok {
			continue
		}
		if _, hit := wanted[schema.NormalizeIdentifier(raw)]; hit {
			rs.Rows = append(rs.Rows, row)
		}
	}
	return rs, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS activity_log (
	id                  TEXT PRIMARY KEY,
	account_name        TEXT NOT NULL,
	customer_identifier TEXT,
	"First_Name"        TEXT,
	"Last_Name"         TEXT,
	"Buying_Role"       TEXT,
	activity_date       DATETIME,
	activity_type       TEXT,
	details             TEXT
);

CREATE INDEX IF NOT EXISTS idx_activity_log_account ON activity_log(account_name);
CREATE INDEX IF NOT EXISTS idx_activity_log_identifier ON activity_log(customer_identifier);

CREATE TABLE IF NOT EXISTS firmographics (
	customer_identifier TEXT,
	industry            TEXT,
	employee_count      INTEGER,
	annual_revenue      TEXT,
	region              TEXT,
	segment             TEXT,
	notes               TEXT
);

CREATE INDEX IF NOT EXISTS idx_firmographics_identifier ON firmographics(customer_identifier);

CREATE TABLE IF NOT EXISTS contacts (
	"Party_Number" TEXT,
	full_name      TEXT,
	job_title      TEXT,
	affinity_code  TEXT
);

CREATE INDEX IF NOT EXISTS idx_contacts_party_number ON contacts("Party_Number");
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrapf(model.ErrConnection, "sqlite: migrate: %v", err)
	}
	return nil
}
