package gateway

import (
	"time"

	"github.com/bitelog/bitelog/client/internal/analysis"
	clienterrors "github.com/bitelog/bitelog/client/internal/errors"
)

// Entry is a food_entries row as the service returns it.
type Entry struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"user_id"`
	Timestamp          int64            `json:"timestamp"`
	ImageURL           *string          `json:"image_url,omitempty"`
	AnalysisData       *analysis.Result `json:"analysis_data,omitempty"`
	UserProvidedWeight *float64         `json:"user_provided_weight,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

// Settings is the per-user settings row.
type Settings struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CalorieGoal int       `json:"calorie_goal"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Account is the user returned by login.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateEntryInput carries the placeholder fields of a new entry.
type CreateEntryInput struct {
	Timestamp          int64
	ImageURL           *string
	Analysis           *analysis.Result
	UserProvidedWeight *float64
}

// Result is the outcome of every gateway call. Success and Error are
// mutually exclusive. StatusCode is 0 when no response arrived.
type Result[T any] struct {
	Success    bool
	Data       T
	Error      string
	StatusCode int
}

// NotFound reports a 404 from the service.
func (r Result[T]) NotFound() bool { return r.StatusCode == 404 }

// Err returns nil on success and a classified error otherwise.
func (r Result[T]) Err(op string) error {
	if r.Success {
		return nil
	}
	return clienterrors.FromHTTPStatus(op, r.StatusCode, r.Error)
}
