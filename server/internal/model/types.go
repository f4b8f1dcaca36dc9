package model

import (
	"encoding/json"
	"time"
)

// User is an authenticated account. Anonymous callers have no row here.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// FoodEntry is a persisted diary row. AnalysisData is stored verbatim and is
// nil while the entry is still a placeholder.
type FoodEntry struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	Timestamp          int64           `json:"timestamp"`
	ImageURL           *string         `json:"image_url,omitempty"`
	AnalysisData       json.RawMessage `json:"analysis_data,omitempty"`
	UserProvidedWeight *float64        `json:"user_provided_weight,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// UserSettings holds per-user preferences; one row per user.
type UserSettings struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CalorieGoal int       `json:"calorie_goal"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListEntriesRequest filters a user's entries. From and To are inclusive
// millisecond bounds; nil means unbounded.
type ListEntriesRequest struct {
	UserID string
	From   *int64
	To     *int64
}
