// Package store is the SQLite persistence layer: store sessions, draft
// expiry picks, the category cache, and settings.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/daeun-oh/kihan/internal/model"
)

// SessionTTL is how long a store login stays usable. Older session rows
// are treated as absent on read.
const SessionTTL = 24 * time.Hour

// SaveStoreSession records a store login, replacing any previous session
// for the same store.
func SaveStoreSession(ctx context.Context, db *sql.DB, storeCode, storeName string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO store_sessions (store_code, store_name, logged_in_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(store_code) DO UPDATE SET
		     store_name = excluded.store_name,
		     logged_in_at = CURRENT_TIMESTAMP`,
		storeCode, storeName,
	)
	if err != nil {
		return fmt.Errorf("saving store session: %w", err)
	}
	return nil
}

// GetStoreSession returns the session for a store, or nil when there is
// none or it is older than SessionTTL.
func GetStoreSession(ctx context.Context, db *sql.DB, storeCode string) (*model.StoreIdentity, error) {
	var identity model.StoreIdentity
	var loggedInAt time.Time
	err := db.QueryRowContext(ctx,
		`SELECT store_code, store_name, logged_in_at
		 FROM store_sessions WHERE store_code = ?`, storeCode,
	).Scan(&identity.StoreCode, &identity.StoreName, &loggedInAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting store session: %w", err)
	}

	if time.Since(loggedInAt) > SessionTTL {
		return nil, nil
	}
	return &identity, nil
}

// LatestStoreSession returns the most recent unexpired session, used as
// the identity fallback when a page is opened without query parameters.
func LatestStoreSession(ctx context.Context, db *sql.DB) (*model.StoreIdentity, error) {
	var identity model.StoreIdentity
	var loggedInAt time.Time
	err := db.QueryRowContext(ctx,
		`SELECT store_code, store_name, logged_in_at
		 FROM store_sessions ORDER BY logged_in_at DESC LIMIT 1`,
	).Scan(&identity.StoreCode, &identity.StoreName, &loggedInAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest store session: %w", err)
	}

	if time.Since(loggedInAt) > SessionTTL {
		return nil, nil
	}
	return &identity, nil
}

// SetLastPicked remembers the store's most recent confirmed pick, used
// to suggest a date for untouched items.
func SetLastPicked(ctx context.Context, db *sql.DB, storeCode, date string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE store_sessions SET last_picked_date = ? WHERE store_code = ?`,
		date, storeCode,
	)
	if err != nil {
		return fmt.Errorf("setting last picked date: %w", err)
	}
	return nil
}

// GetLastPicked returns the store's most recent confirmed pick, or ""
// when none is recorded.
func GetLastPicked(ctx context.Context, db *sql.DB, storeCode string) (string, error) {
	var date sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT last_picked_date FROM store_sessions WHERE store_code = ?`, storeCode,
	).Scan(&date)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting last picked date: %w", err)
	}
	return date.String, nil
}
