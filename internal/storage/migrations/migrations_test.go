package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMigrations_Ordered(t *testing.T) {
	files, err := readMigrations(PostgresFS, "postgres")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "001_swap_events.sql", files[0].name)
	assert.Equal(t, "003_step_records.sql", files[2].name)

	files, err = readMigrations(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.Len(t, files, 2)

	files, err = readMigrations(SqliteFS, "sqlite")
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestSplitStatements(t *testing.T) {
	sql := `-- header
CREATE TABLE a (x Int64);

-- second
CREATE TABLE b (y String)
ENGINE = MergeTree()
ORDER BY y;
`
	stmts := splitStatements(sql)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x Int64)", stmts[0])
	assert.Contains(t, stmts[1], "ORDER BY y")
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings("SELECT 'a''b'; SELECT 1;"))
	assert.Error(t, validateNoSemicolonInStrings("SELECT 'a;b'"))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/clmm")
	require.NoError(t, err)
	assert.Equal(t, "clmm", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
