package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. The tables correspond to the state
// the entry form keeps between visits: store_sessions for the 24-hour
// store login, draft_entries for in-progress expiry picks, and
// category_cache for the last good upstream catalogue.
const schema = `
CREATE TABLE IF NOT EXISTS store_sessions (
    store_code       TEXT PRIMARY KEY,
    store_name       TEXT NOT NULL,
    last_picked_date TEXT,
    logged_in_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS draft_entries (
    store_code  TEXT NOT NULL,
    entry_key   TEXT NOT NULL,
    expiry_date TEXT NOT NULL,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (store_code, entry_key)
);

CREATE TABLE IF NOT EXISTS category_cache (
    key        TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    fetched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
