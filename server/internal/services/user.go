package services

import (
	"context"
	"errors"

	"github.com/bitelog/bitelog/server/internal/model"
	"github.com/bitelog/bitelog/server/internal/store"
)

// UserService handles login. There are no credentials: an email either
// resolves to an existing account or creates one.
type UserService struct {
	store       store.Store
	defaultGoal int
}

func NewUserService(s store.Store, defaultGoal int) *UserService {
	return &UserService{store: s, defaultGoal: defaultGoal}
}

// Login returns the account for email, creating it together with default
// settings on first use. An existing account keeps its stored name.
func (s *UserService) Login(ctx context.Context, email, name string) (*model.User, error) {
	u, err := s.store.Users().GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	u, err = s.store.Users().Create(ctx, &model.User{Email: email, Name: name})
	if errors.Is(err, model.ErrConflict) {
		// Lost a race with a concurrent first login for the same email.
		return s.store.Users().GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Settings().CreateIfMissing(ctx, u.ID, s.defaultGoal); err != nil {
		return nil, err
	}
	return u, nil
}
