package db

import (
	"context"
	"errors"
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushTruncatesEveryTable(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec(regexp.QuoteMeta("TRUNCATE TABLE users, companies, pin_profiles")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Flush(context.Background(), conn))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushWrapsErrors(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec("TRUNCATE TABLE").WillReturnError(errors.New("permission denied"))

	err = Flush(context.Background(), conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestPing(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectPing()
	require.NoError(t, Ping(context.Background(), conn))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.ErrorContains(t, Ping(context.Background(), conn), "connection refused")
}

func TestOpenRequiresURL(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	up, down := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			up[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			down[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, up)
	assert.Equal(t, up, down)
}

func TestMigrationsCreateEveryFlushedTable(t *testing.T) {
	var schema strings.Builder
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			b, err := fs.ReadFile(migrationsFS, "migrations/"+e.Name())
			require.NoError(t, err)
			schema.Write(b)
		}
	}
	for _, table := range Tables {
		assert.Contains(t, schema.String(), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}
