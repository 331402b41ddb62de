package db

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/inventar/internal/config"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	// Every connection to :memory: is a separate database, so keep just one.
	db, err := Open(ctx, config.Database{Driver: config.DriverSQLite, Path: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
