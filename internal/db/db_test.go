package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/inventar/internal/config"
)

func TestOpenSQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "inventory.sqlite3")

	database, err := Open(ctx, config.Database{Driver: config.DriverSQLite, Path: path, MaxOpenConns: 4})
	require.NoError(t, err)
	defer database.Close()

	// Applying the schema twice must be harmless.
	require.NoError(t, EnsureSchema(ctx, database))
	require.NoError(t, EnsureSchema(ctx, database))

	var mode string
	require.NoError(t, database.GetContext(ctx, &mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", mode)

	var count int
	require.NoError(t, database.GetContext(ctx, &count, "SELECT COUNT(*) FROM inventory"))
	assert.Zero(t, count)
}

func TestSQLiteBindsQuestionMarks(t *testing.T) {
	database := NewTestDB(t)
	assert.Equal(t, "SELECT * FROM inventory WHERE id = ?", database.Rebind("SELECT * FROM inventory WHERE id = ?"))
}

func TestSchemaRejectsNegativeQuantity(t *testing.T) {
	database := NewTestDB(t)
	_, err := database.Exec(`INSERT INTO inventory (name, quantity) VALUES ('x', -1)`)
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_time_format=sqlite", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x.db?cache=shared&_time_format=sqlite", sqliteDSN("file:x.db?cache=shared"))
}
