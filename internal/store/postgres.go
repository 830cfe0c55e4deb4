package store

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/accounts-cli/internal/db"
	"github.com/sells-group/accounts-cli/internal/model"
	"github.com/sells-group/accounts-cli/internal/schema"
)

// PostgresStore implements Store against the reporting database using
// pgxpool. Every query is parameterized; no user value is ever interpolated
// into SQL text. Identifier joins push the normalizer into SQL so membership
// tests run at the query boundary.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	cols    schema.Candidates

	mu       sync.Mutex
	colCache map[string][]string // table -> source column spellings
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig, cols schema.Candidates) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrapf(model.ErrConnection, "postgres: ping: %v", err)
	}
	return &PostgresStore{
		pool:     pool,
		closeFn:  pool.Close,
		cols:     cols,
		colCache: make(map[string][]string),
	}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "SELECT 1"); err != nil {
		return eris.Wrapf(model.ErrConnection, "postgres: ping: %v", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// tableColumns returns the source column spellings of a reporting table, in
// ordinal position. Results are cached for the life of the store; the
// reporting schema does not change within a session.
func (s *PostgresStore) tableColumns(ctx context.Context, table string) ([]string, error) {
	s.mu.Lock()
	cached, ok := s.colCache[table]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1
		 ORDER BY ordinal_position`,
		table,
	)
	if err != nil {
		return nil, eris.Wrapf(model.ErrConnection, "postgres: columns of %s: %v", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, eris.Wrapf(model.ErrConnection, "postgres: scan column name: %v", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(model.ErrConnection, "postgres: columns of %s: %v", table, err)
	}
	if len(cols) == 0 {
		return nil, eris.Wrapf(model.ErrSchemaMismatch, "postgres: table %s has no columns visible", table)
	}

	s.mu.Lock()
	s.colCache[table] = cols
	s.mu.Unlock()
	return cols, nil
}

// scanRowset drains rows into a generic Rowset keyed by source column names.
func scanRowset(rows pgx.Rows) (*model.Rowset, error) {
	fds := rows.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = string(fd.Name)
	}

	rs := model.NewRowset(cols)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, eris.Wrapf(model.ErrConnection, "postgres: read row: %v", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = vals[i]
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(model.ErrConnection, "postgres: iterate rows: %v", err)
	}
	return rs, nil
}

func (s *PostgresStore) ActivitiesByAccount(ctx context.Context, account string) (*model.Rowset, error) {
	cols, err := s.tableColumns(ctx, TableActivity)
	if err != nil {
		return nil, err
	}
	accountCol, err := schema.MustResolveColumn(cols, s.cols.Account, "account name")
	if err != nil {
		return nil, err
	}

	query := `SELECT * FROM ` + pgx.Identifier{TableActivity}.Sanitize() +
		` WHERE ` + pgx.Identifier{accountCol}.Sanitize() + ` = $1`
	rows, err := s.pool.Query(ctx, query, account)
	if err != nil {
		return nil, eris.Wrapf(model.ErrConnection, "postgres: activities by account: %v", err)
	}
	defer rows.Close()
	return scanRowset(rows)
}

func (s *PostgresStore) ActivitiesByAccounts(ctx context.Context, accounts []string) (*model.Rowset, error) {
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

	query := `SELECT * FROM ` + pgx.Identifier{TableActivity}.Sanitize() +
		` WHERE ` + pgx.Identifier{accountCol}.Sanitize() + ` = ANY($1)`
	rows, err := s.pool.Query(ctx, query, accounts)
	if err != nil {
		return nil, eris.Wrapf(model.ErrConnection, "postgres: activities by accounts: %v", err)
	}
	defer rows.Close()
	return scanRowset(rows)
}

func (s *PostgresStore) FirmographicsByIdentifiers(ctx context.Context, ids []string) (*model.Rowset, error) {
	return s.byNormalizedIdentifier(ctx, TableFirmographics, s.cols.Identifier, "customer identifier", ids)
}

func (s *PostgresStore) ContactsByIdentifiers(ctx context.Context, ids []string) (*model.Rowset, error) {
	return s.byNormalizedIdentifier(ctx, TableContacts, s.cols.JoinKey, "join key", ids)
}

// byNormalizedIdentifier fetches rows whose identifier column, normalized in
// SQL with the same semantics as schema.NormalizeIdentifier, is a member of
// ids. ids must already be normalized.
func (s *PostgresStore) byNormalizedIdentifier(ctx context.Context, table string, candidates []string, what string, ids []string) (*model.Rowset, error) {
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

	query := `SELECT * FROM ` + pgx.Identifier{table}.Sanitize() +
		` WHERE ` + schema.IdentifierNormalizeSQL(pgx.Identifier{idCol}.Sanitize()) + ` = ANY($1)`
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, eris.Wrapf(model.ErrConnection, "postgres: %s membership on %s: %v", what, table, err)
	}
	defer rows.Close()
	return scanRowset(rows)
}

// postgresMigration creates the reporting tables for local development. The
// deliberately inconsistent column casing matches what the source extracts
// actually look like, which is what the column resolver exists to absorb.
const postgresMigration = `
CREATE TABLE IF NOT EXISTS activity_log (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	account_name        TEXT NOT NULL,
	customer_identifier TEXT,
	"First_Name"        TEXT,
	"Last_Name"         TEXT,
	"Buying_Role"       TEXT,
	activity_date       TIMESTAMPTZ,
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

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrapf(model.ErrConnection, "postgres: migrate: %v", err)
	}
	return nil
}
