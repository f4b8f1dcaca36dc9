package services

import (
	"context"
	"errors"

	"github.com/bitelog/bitelog/server/internal/model"
	"github.com/bitelog/bitelog/server/internal/store"
)

type SettingsService struct {
	store       store.Store
	defaultGoal int
}

func NewSettingsService(s store.Store, defaultGoal int) *SettingsService {
	return &SettingsService{store: s, defaultGoal: defaultGoal}
}

// Get returns the user's settings, creating the default row on first read.
func (s *SettingsService) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	out, err := s.store.Settings().Get(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return s.store.Settings().CreateIfMissing(ctx, userID, s.defaultGoal)
	}
	return out, err
}

// UpdateGoal upserts the calorie goal.
func (s *SettingsService) UpdateGoal(ctx context.Context, userID string, goal int) (*model.UserSettings, error) {
	return s.store.Settings().Upsert(ctx, userID, goal)
}
