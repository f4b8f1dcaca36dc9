package store

import (
	"context"
	"encoding/json"

	"github.com/bitelog/bitelog/server/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
//
// Lookups that find nothing return model.ErrNotFound. Ownership is part of
// every entry predicate: a row that exists under another user_id is reported
// exactly like a missing row.
type Store interface {
	Users() Users
	Entries() Entries
	Settings() Settings
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
}

type Entries interface {
	Create(ctx context.Context, e *model.FoodEntry) (*model.FoodEntry, error)
	// List returns entries ordered by timestamp descending.
	List(ctx context.Context, req model.ListEntriesRequest) ([]*model.FoodEntry, error)
	UpdateAnalysis(ctx context.Context, userID, entryID string, analysis json.RawMessage) (*model.FoodEntry, error)
	Delete(ctx context.Context, userID, entryID string) error
}

type Settings interface {
	Get(ctx context.Context, userID string) (*model.UserSettings, error)
	// CreateIfMissing inserts a row with goal unless one exists, then returns
	// the stored row.
	CreateIfMissing(ctx context.Context, userID string, goal int) (*model.UserSettings, error)
	Upsert(ctx context.Context, userID string, goal int) (*model.UserSettings, error)
}
