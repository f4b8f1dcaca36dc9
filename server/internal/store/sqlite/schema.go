package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are unix milliseconds; analysis_data is JSON text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        email TEXT UNIQUE NOT NULL,
        name TEXT NOT NULL,
        created_at INTEGER NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS food_entries (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        timestamp INTEGER NOT NULL,
        image_url TEXT,
        analysis_data TEXT,
        user_provided_weight REAL,
        created_at INTEGER NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_food_entries_user_timestamp
        ON food_entries(user_id, timestamp)`,
	`CREATE TABLE IF NOT EXISTS user_settings (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL UNIQUE,
        calorie_goal INTEGER NOT NULL DEFAULT 2200,
        updated_at INTEGER NOT NULL
    )`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite schema stmt %d: %w", i, err)
		}
	}
	return nil
}
