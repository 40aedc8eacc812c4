package store

import (
	"context"
	"database/sql"
	"fmt"
)

// UpsertDraft records one in-progress expiry pick for a store.
func UpsertDraft(ctx context.Context, db *sql.DB, storeCode, entryKey, expiryDate string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO draft_entries (store_code, entry_key, expiry_date, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(store_code, entry_key) DO UPDATE SET
		     expiry_date = excluded.expiry_date,
		     updated_at = CURRENT_TIMESTAMP`,
		storeCode, entryKey, expiryDate,
	)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// DeleteDraft removes one pick. Deleting an absent key is not an error.
func DeleteDraft(ctx context.Context, db *sql.DB, storeCode, entryKey string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM draft_entries WHERE store_code = ? AND entry_key = ?`,
		storeCode, entryKey,
	)
	if err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	return nil
}

// ListDrafts returns a store's full draft set as a key→date mapping.
func ListDrafts(ctx context.Context, db *sql.DB, storeCode string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT entry_key, expiry_date FROM draft_entries WHERE store_code = ?`,
		storeCode,
	)
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	defer rows.Close()

	drafts := make(map[string]string)
	for rows.Next() {
		var key, date string
		if err := rows.Scan(&key, &date); err != nil {
			return nil, fmt.Errorf("scanning draft: %w", err)
		}
		drafts[key] = date
	}
	return drafts, rows.Err()
}
