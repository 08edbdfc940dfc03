package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	require.Equal(t, "file::memory:?cache=shared&_foreign_keys=1", sqliteDSN(""))
	require.Equal(t, "file::memory:?cache=shared&_foreign_keys=1", sqliteDSN(":memory:"))

	dsn := sqliteDSN("./data/learnhub.sqlite")
	require.Contains(t, dsn, "file:data/learnhub.sqlite")
	require.Contains(t, dsn, "_foreign_keys=1")
	require.Contains(t, dsn, "_journal_mode=WAL")
	require.Contains(t, dsn, "_busy_timeout=5000")
}

func TestBuildMySQLDSN(t *testing.T) {
	_, err := buildMySQLDSN(Config{Driver: "mysql"})
	require.Error(t, err)

	dsn, err := buildMySQLDSN(Config{
		Driver:   "mysql",
		User:     "learnhub",
		Password: "secret",
		Name:     "learnhub",
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "learnhub:secret@tcp(127.0.0.1:3306)/learnhub")
	require.Contains(t, dsn, "parseTime=true")
	require.Contains(t, dsn, "charset=utf8mb4")

	// An explicit DSN wins over the individual fields.
	dsn, err = buildMySQLDSN(Config{Driver: "mysql", DSN: "user@tcp(db:3306)/catalog"})
	require.NoError(t, err)
	require.Equal(t, "user@tcp(db:3306)/catalog", dsn)
}
