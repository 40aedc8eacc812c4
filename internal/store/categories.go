package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/daeun-oh/kihan/internal/model"
)

// categoryCacheKey versions the cached payload shape.
const categoryCacheKey = "categories_v1"

// SaveCategoryCache stores the last successfully fetched catalogue.
func SaveCategoryCache(ctx context.Context, db *sql.DB, categories []model.Category) error {
	payload, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encoding category cache: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO category_cache (key, payload, fetched_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET
		     payload = excluded.payload,
		     fetched_at = CURRENT_TIMESTAMP`,
		categoryCacheKey, string(payload),
	)
	if err != nil {
		return fmt.Errorf("saving category cache: %w", err)
	}
	return nil
}

// GetCategoryCache returns the cached catalogue, or nil when none has
// been saved yet.
func GetCategoryCache(ctx context.Context, db *sql.DB) ([]model.Category, error) {
	var payload string
	err := db.QueryRowContext(ctx,
		`SELECT payload FROM category_cache WHERE key = ?`, categoryCacheKey,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category cache: %w", err)
	}

	var categories []model.Category
	if err := json.Unmarshal([]byte(payload), &categories); err != nil {
		return nil, fmt.Errorf("decoding category cache: %w", err)
	}
	return categories, nil
}
