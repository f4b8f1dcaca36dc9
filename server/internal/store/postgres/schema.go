package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema mirrors the diary tables. food_entries.user_id and
// user_settings.user_id carry no foreign key: anonymous clients own rows
// under identifiers that never appear in users.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        email VARCHAR(255) UNIQUE NOT NULL,
        name VARCHAR(255) NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS food_entries (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        timestamp BIGINT NOT NULL,
        image_url TEXT,
        analysis_data JSONB,
        user_provided_weight DOUBLE PRECISION,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_food_entries_user_timestamp
        ON food_entries(user_id, timestamp)`,
	`CREATE TABLE IF NOT EXISTS user_settings (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL UNIQUE,
        calorie_goal INTEGER NOT NULL DEFAULT 2200,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres schema stmt %d: %w", i, err)
		}
	}
	return nil
}
