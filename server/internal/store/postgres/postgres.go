package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/bitelog/bitelog/server/internal/model"
	"github.com/bitelog/bitelog/server/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users       { return &users{db: s.db} }
func (s *pgStore) Entries() store.Entries   { return &entries{db: s.db} }
func (s *pgStore) Settings() store.Settings { return &settings{db: s.db} }

// HealthPing implements health.Pinger for Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap verifies connectivity and applies the schema.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	return EnsureSchema(ctx, db)
}

// isUniqueViolation reports SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// jsonParam maps an empty payload to SQL NULL.
func jsonParam(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// --- Users ---
type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	out := *m
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (id, email, name)
        VALUES ($1,$2,$3)
        RETURNING created_at
    `, out.ID, out.Email, out.Name)
	if err := row.Scan(&out.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", model.ErrConflict)
		}
		return nil, err
	}
	return &out, nil
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.getOne(ctx, `SELECT id, email, name, created_at FROM users WHERE email=$1 LIMIT 1`, email)
}

func (u *users) Get(ctx context.Context, id string) (*model.User, error) {
	return u.getOne(ctx, `SELECT id, email, name, created_at FROM users WHERE id=$1`, id)
}

func (u *users) getOne(ctx context.Context, query string, arg string) (*model.User, error) {
	var out model.User
	err := u.db.QueryRowContext(ctx, query, arg).Scan(&out.ID, &out.Email, &out.Name, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Entries ---
type entries struct{ db *sql.DB }

const entryColumns = `id, user_id, timestamp, image_url, analysis_data, user_provided_weight, created_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanEntry(r rowScanner) (*model.FoodEntry, error) {
	var (
		e        model.FoodEntry
		analysis []byte
	)
	if err := r.Scan(&e.ID, &e.UserID, &e.Timestamp, &e.ImageURL, &analysis, &e.UserProvidedWeight, &e.CreatedAt); err != nil {
		return nil, err
	}
	if len(analysis) > 0 {
		e.AnalysisData = json.RawMessage(analysis)
	}
	return &e, nil
}

func (s *entries) Create(ctx context.Context, e *model.FoodEntry) (*model.FoodEntry, error) {
	id := e.ID
	if id == "" {
		id = uuid.New().String()
	}
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO food_entries (id, user_id, timestamp, image_url, analysis_data, user_provided_weight)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING `+entryColumns,
		id, e.UserID, e.Timestamp, e.ImageURL, jsonParam(e.AnalysisData), e.UserProvidedWeight)
	return scanEntry(row)
}

func (s *entries) List(ctx context.Context, req model.ListEntriesRequest) ([]*model.FoodEntry, error) {
	var (
		where = []string{"user_id=$1"}
		args  = []any{req.UserID}
	)
	if req.From != nil {
		args = append(args, *req.From)
		where = append(where, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if req.To != nil {
		args = append(args, *req.To)
		where = append(where, fmt.Sprintf("timestamp <= $%d", len(args)))
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+entryColumns+`
        FROM food_entries
        WHERE `+strings.Join(where, " AND ")+`
        ORDER BY timestamp DESC, created_at DESC
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
	row := s.db.QueryRowContext(ctx, `
        UPDATE food_entries
        SET analysis_data=$1
        WHERE id=$2 AND user_id=$3
        RETURNING `+entryColumns,
		jsonParam(analysis), entryID, userID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return e, err
}

func (s *entries) Delete(ctx context.Context, userID, entryID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM food_entries WHERE id=$1 AND user_id=$2`, entryID, userID)
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

func scanSettings(r rowScanner) (*model.UserSettings, error) {
	var out model.UserSettings
	if err := r.Scan(&out.ID, &out.UserID, &out.CalorieGoal, &out.UpdatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *settings) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	out, err := scanSettings(s.db.QueryRowContext(ctx, `
        SELECT id, user_id, calorie_goal, updated_at FROM user_settings WHERE user_id=$1 LIMIT 1
    `, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return out, err
}

func (s *settings) CreateIfMissing(ctx context.Context, userID string, goal int) (*model.UserSettings, error) {
	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO user_settings (id, user_id, calorie_goal, updated_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id) DO NOTHING
    `, uuid.New().String(), userID, goal, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *settings) Upsert(ctx context.Context, userID string, goal int) (*model.UserSettings, error) {
	return scanSettings(s.db.QueryRowContext(ctx, `
        INSERT INTO user_settings (id, user_id, calorie_goal, updated_at)
        VALUES ($1,$2,$3,NOW())
        ON CONFLICT (user_id)
        DO UPDATE SET calorie_goal=EXCLUDED.calorie_goal, updated_at=NOW()
        RETURNING id, user_id, calorie_goal, updated_at
    `, uuid.New().String(), userID, goal))
}
