package database

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdered(t *testing.T) {
	ms, err := LoadMigrations()
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, 1, ms[0].Version)
	assert.Equal(t, "create_users", ms[0].Name)
	assert.Equal(t, 2, ms[1].Version)
	assert.Contains(t, ms[1].SQL, "CREATE TABLE IF NOT EXISTS bookings")
}

func TestMigrateAppliesPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS bookings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version, name) VALUES (?, ?)")).
		WithArgs(2, "create_bookings").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("access denied"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 1 create_users")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	c, err := mysql.ParseDSN(DSN("app", "secret", "db", "3306", "workshops"))
	require.NoError(t, err)
	assert.Equal(t, "app", c.User)
	assert.Equal(t, "secret", c.Passwd)
	assert.Equal(t, "tcp", c.Net)
	assert.Equal(t, "db:3306", c.Addr)
	assert.Equal(t, "workshops", c.DBName)
	assert.True(t, c.ParseTime)
	assert.Equal(t, time.UTC, c.Loc)

	dsn := DSN("app", "", "db", "3306", "workshops")
	assert.True(t, strings.HasPrefix(dsn, "app@tcp(db:3306)/workshops?"), dsn)
	assert.Contains(t, dsn, "charset=utf8mb4")
}
