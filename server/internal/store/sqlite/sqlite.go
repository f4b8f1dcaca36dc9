// Package sqlite is the single-file store used by the local build target.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/bitelog/bitelog/server/internal/model"
	"github.com/bitelog/bitelog/server/internal/store"
)

// NewWithDB constructs a SQLite store over an opened database. Call
// EnsureSchema first when the file may be fresh.
func NewWithDB(db *sql.DB) store.Store { return &liteStore{db: db} }

type liteStore struct{ db *sql.DB }

func (s *liteStore) Users() store.Users       { return &users{db: s.db} }
func (s *liteStore) Entries() store.Entries   { return &entries{db: s.db} }
func (s *liteStore) Settings() store.Settings { return &settings{db: s.db} }

// HealthPing implements health.Pinger.
func (s *liteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	// The primary code shows up when extended result codes are off.
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT
}

func nowMillis() int64 { return time.Now().UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// --- Users ---
type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	created := nowMillis()
	if _, err := u.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at) VALUES (?,?,?,?)`,
		out.ID, out.Email, out.Name, created); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", model.ErrConflict)
		}
		return nil, err
	}
	out.CreatedAt = fromMillis(created)
	return &out, nil
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.getOne(ctx, `SELECT id, email, name, created_at FROM users WHERE email=? LIMIT 1`, email)
}

func (u *users) Get(ctx context.Context, id string) (*model.User, error) {
	return u.getOne(ctx, `SELECT id, email, name, created_at FROM users WHERE id=?`, id)
}

func (u *users) getOne(ctx context.Context, query, arg string) (*model.User, error) {
	var (
		out     model.User
		created int64
	)
	err := u.db.QueryRowContext(ctx, query, arg).Scan(&out.ID, &out.Email, &out.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out.CreatedAt = fromMillis(created)
	return &out, nil
}

// --- Entries ---
type entries struct{ db *sql.DB }

const entryColumns = `id, user_id, timestamp, image_url, analysis_data, user_provided_weight, created_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanEntry(r rowScanner) (*model.FoodEntry, error) {
	var (
		e        model.FoodEntry
		analysis *string
		created  int64
	)
	if err := r.Scan(&e.ID, &e.UserID, &e.Timestamp, &e.ImageURL, &analysis, &e.UserProvidedWeight, &created); err != nil {
		return nil, err
	}
	if analysis != nil && *analysis != "" {
		e.AnalysisData = json.RawMessage(*analysis)
	}
	e.CreatedAt = fromMillis(created)
	return &e, nil
}

func jsonParam(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func (s *entries) get(ctx context.Context, userID, entryID string) (*model.FoodEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM food_entries WHERE id=? AND user_id=?`, entryID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return e, err
}

func (s *entries) Create(ctx context.Context, e *model.FoodEntry) (*model.FoodEntry, error) {
	id := e.ID
	if id == "" {
		id = uuid.New().String()
	}
	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO food_entries (id, user_id, timestamp, image_url, analysis_data, user_provided_weight, created_at)
        VALUES (?,?,?,?,?,?,?)
    `, id, e.UserID, e.Timestamp, e.ImageURL, jsonParam(e.AnalysisData), e.UserProvidedWeight, nowMillis()); err != nil {
		return nil, err
	}
	return s.get(ctx, e.UserID, id)
}

func (s *entries) List(ctx context.Context, req model.ListEntriesRequest) ([]*model.FoodEntry, error) {
	var (
		where = []string{"user_id=?"}
		args  = []any{req.UserID}
	)
	if req.From != nil {
		where = append(where, "timestamp >= ?")
		args = append(args, *req.From)
	}
	if req.To != nil {
		where = append(where, "timestamp <= ?")
		args = append(args, *req.To)
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+entryColumns+`
        FROM food_entries
        WHERE `+strings.Join(where, " AND ")+`
        ORDER BY timestamp DESC, rowid DESC
    `, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	res := make([]*model.FoodEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (s *entries) UpdateAnalysis(ctx context.Context, userID, entryID string, analysis json.RawMessage) (*model.FoodEntry, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE food_entries SET analysis_data=? WHERE id=? AND user_id=?`,
		jsonParam(analysis), entryID, userID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, model.ErrNotFound
	}
	return s.get(ctx, userID, entryID)
}

func (s *entries) Delete(ctx context.Context, userID, entryID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM food_entries WHERE id=? AND user_id=?`, entryID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Settings ---
type settings struct{ db *sql.DB }

func (s *settings) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	var (
		out     model.UserSettings
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, calorie_goal, updated_at FROM user_settings WHERE user_id=? LIMIT 1`, userID).
		Scan(&out.ID, &out.UserID, &out.CalorieGoal, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out.UpdatedAt = fromMillis(updated)
	return &out, nil
}

func (s *settings) CreateIfMissing(ctx context.Context, userID string, goal int) (*model.UserSettings, error) {
	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO user_settings (id, user_id, calorie_goal, updated_at)
        VALUES (?,?,?,?)
        ON CONFLICT (user_id) DO NOTHING
    `, uuid.New().String(), userID, goal, nowMillis()); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *settings) Upsert(ctx context.Context, userID string, goal int) (*model.UserSettings, error) {
	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO user_settings (id, user_id, calorie_goal, updated_at)
        VALUES (?,?,?,?)
        ON CONFLICT (user_id)
        DO UPDATE SET calorie_goal=excluded.calorie_goal, updated_at=excluded.updated_at
    `, uuid.New().String(), userID, goal, nowMillis()); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}
