package store

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/accounts-cli/internal/model"
	"github.com/sells-group/accounts-cli/internal/schema"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	st := &PostgresStore{
		pool:     mock,
		cols:     schema.DefaultCandidates(),
		colCache: make(map[string][]string),
	}
	return st, mock
}

func expectActivityColumns(mock pgxmock.PgxPoolIface) {
	mock.ExpectQuery(`SELECT column_name FROM information_schema\.columns`).
		WithArgs(TableActivity).
		WillReturnRows(pgxmock.NewRows([]string{"column_name"}).
			AddRow("id").
			AddRow("account_name").
			AddRow("customer_identifier").
			AddRow("First_Name").
			AddRow("Last_Name").
			AddRow("activity_date"))
}

func TestPostgres_ActivitiesByAccount(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()

	expectActivityColumns(mock)
	mock.ExpectQuery(`SELECT \* FROM "activity_log" WHERE "account_name" = \$1`).
		WithArgs("Acme Corp").
		WillReturnRows(pgxmock.NewRows([]string{"id", "account_name", "First_Name"}).
			AddRow("a1", "Acme Corp", "Jane"))

	rs, err := st.ActivitiesByAccount(ctx, "Acme Corp")
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, "Jane", rs.Rows[0]["First_Name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ColumnCacheReused(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()

	// One information_schema lookup serves both data queries.
	expectActivityColumns(mock)
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT \* FROM "activity_log" WHERE "account_name" = \$1`).
			WithArgs("Acme Corp").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("a1"))
	}

	_, err := st.ActivitiesByAccount(ctx, "Acme Corp")
	require.NoError(t, err)
	_, err = st.ActivitiesByAccount(ctx, "Acme Corp")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ActivitiesByAccounts_UsesAny(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()

	expectActivityColumns(mock)
	mock.ExpectQuery(`SELECT \* FROM "activity_log" WHERE "account_name" = ANY\(\$1\)`).
		WithArgs([]string{"Acme Corp", "Globex"}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("a1").AddRow("b1"))

	rs, err := st.ActivitiesByAccounts(ctx, []string{"Acme Corp", "Globex"})
	require.NoError(t, err)
	assert.Len(t, rs.Rows, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ActivitiesByAccounts_EmptyShortCircuits(t *testing.T) {
	st, mock := newMockStore(t)

	rs, err := st.ActivitiesByAccounts(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, rs.Empty())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FirmographicsByIdentifiers_NormalizesInSQL(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT column_name FROM information_schema\.columns`).
		WithArgs(TableFirmographics).
		WillReturnRows(pgxmock.NewRows([]string{"column_name"}).
			AddRow("customer_identifier").
			AddRow("industry"))
	mock.ExpectQuery(`regexp_replace\(upper\(btrim\("customer_identifier"::text\)\), .+\) = ANY\(\$1\)`).
		WithArgs([]string{"ACME1"}).
		WillReturnRows(pgxmock.NewRows([]string{"customer_identifier", "industry"}).
			AddRow("H-CIT-ACME1", "Software"))

	rs, err := st.FirmographicsByIdentifiers(ctx, []string{"ACME1"})
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, "Software", rs.Rows[0]["industry"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SchemaMismatchWhenJoinKeyMissing(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT column_name FROM information_schema\.columns`).
		WithArgs(TableContacts).
		WillReturnRows(pgxmock.NewRows([]string{"column_name"}).
			AddRow("full_name").
			AddRow("job_title"))

	_, err := st.ContactsByIdentifiers(context.Background(), []string{"ACME1"})
	require.Error(t, err)
	assert.True(t, model.IsSchemaMismatch(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SchemaMismatchWhenTableInvisible(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT column_name FROM information_schema\.columns`).
		WithArgs(TableActivity).
		WillReturnRows(pgxmock.NewRows([]string{"column_name"}))

	_, err := st.ActivitiesByAccount(context.Background(), "Acme Corp")
	require.Error(t, err)
	assert.True(t, model.IsSchemaMismatch(err))
}

func TestPostgres_ConnectionErrorsWrapped(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT column_name FROM information_schema\.columns`).
		WithArgs(TableActivity).
		WillReturnError(errors.New("connection refused"))

	_, err := st.ActivitiesByAccount(context.Background(), "Acme Corp")
	require.Error(t, err)
	assert.True(t, model.IsConnection(err))
}

func TestPostgres_Ping(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(`SELECT 1`).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	assert.NoError(t, st.Ping(context.Background()))

	mock.ExpectExec(`SELECT 1`).WillReturnError(errors.New("down"))
	err := st.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsConnection(err))
}

func TestPostgres_Migrate(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS activity_log`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	assert.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
