package db

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/erazemk/inventar/internal/config"
)

// sqliteSchema is the inventory schema for SQLite.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS inventory (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    description TEXT,
    quantity    INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    price       REAL NOT NULL DEFAULT 0 CHECK (price >= 0),
    photo       TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_inventory_created_at ON inventory(created_at);
`

// postgresSchema is the inventory schema for PostgreSQL.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS inventory (
    id          BIGSERIAL PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT,
    quantity    INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    price       NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (price >= 0),
    photo       TEXT,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_inventory_created_at ON inventory(created_at);
`

// EnsureSchema creates the inventory table and its index if they don't already exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	schema := postgresSchema
	if db.DriverName() == config.DriverSQLite {
		schema = sqliteSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "creating schema")
	}
	return nil
}
