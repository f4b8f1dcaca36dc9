// Package identity decides which user ID owns the entries created in this
// session.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bitelog/bitelog/client/internal/gateway"
	"github.com/bitelog/bitelog/client/internal/localstate"
)

// Identity is either an authenticated account or an anonymous ID.
type Identity struct {
	UserID  string
	Account *gateway.Account
}

// Anonymous reports whether no account is signed in.
func (i Identity) Anonymous() bool { return i.Account == nil }

// Authenticator is the part of the gateway used for login.
type Authenticator interface {
	Login(ctx context.Context, email, name string) gateway.Result[gateway.Account]
}

// LoginError carries the service's rejection of a login attempt.
type LoginError struct {
	StatusCode int
	Message    string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed (status %d): %s", e.StatusCode, e.Message)
}

// Resolver reads and writes identity under the bite_user and
// bite_temp_user_id keys.
type Resolver struct {
	kv   localstate.Store
	auth Authenticator
}

func NewResolver(kv localstate.Store, auth Authenticator) *Resolver {
	return &Resolver{kv: kv, auth: auth}
}

// Resolve returns the persisted account if any, otherwise the anonymous ID,
// creating and persisting it on first use.
func (r *Resolver) Resolve() (Identity, error) {
	acct, err := r.account()
	if err != nil {
		return Identity{}, err
	}
	if acct != nil {
		return Identity{UserID: acct.ID, Account: acct}, nil
	}

	id, err := r.kv.Get(localstate.KeyTempUserID)
	switch {
	case err == nil && id != "":
		return Identity{UserID: id}, nil
	case err != nil && !errors.Is(err, localstate.ErrNotFound):
		return Identity{}, err
	}
	id = uuid.New().String()
	if err := r.kv.Set(localstate.KeyTempUserID, id); err != nil {
		return Identity{}, fmt.Errorf("persist anonymous id: %w", err)
	}
	log.Debug().Str("user_id", id).Msg("created anonymous identity")
	return Identity{UserID: id}, nil
}

func (r *Resolver) account() (*gateway.Account, error) {
	raw, err := r.kv.Get(localstate.KeyUser)
	if errors.Is(err, localstate.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var acct gateway.Account
	if err := json.Unmarshal([]byte(raw), &acct); err != nil || acct.ID == "" {
		log.Warn().Err(err).Msg("ignoring unreadable stored account")
		return nil, nil
	}
	return &acct, nil
}

// Login signs in through the service and makes the account the current
// identity. Entries created anonymously stay with the anonymous ID.
func (r *Resolver) Login(ctx context.Context, email, name string) (Identity, error) {
	email, name = strings.TrimSpace(email), strings.TrimSpace(name)
	if email == "" || name == "" {
		return Identity{}, errors.New("email and name are required")
	}
	res := r.auth.Login(ctx, email, name)
	if !res.Success {
		return Identity{}, &LoginError{StatusCode: res.StatusCode, Message: res.Error}
	}
	acct := res.Data
	b, err := json.Marshal(acct)
	if err != nil {
		return Identity{}, err
	}
	if err := r.kv.Set(localstate.KeyUser, string(b)); err != nil {
		return Identity{}, fmt.Errorf("persist account: %w", err)
	}
	if err := r.kv.Delete(localstate.KeyTempUserID); err != nil {
		return Identity{}, fmt.Errorf("clear anonymous id: %w", err)
	}
	log.Info().Str("user_id", acct.ID).Msg("signed in")
	return Identity{UserID: acct.ID, Account: &acct}, nil
}

// Logout forgets the account and starts a fresh anonymous identity.
func (r *Resolver) Logout() (Identity, error) {
	if err := r.kv.Delete(localstate.KeyUser); err != nil {
		return Identity{}, fmt.Errorf("clear account: %w", err)
	}
	id := uuid.New().String()
	if err := r.kv.Set(localstate.KeyTempUserID, id); err != nil {
		return Identity{}, fmt.Errorf("persist anonymous id: %w", err)
	}
	return Identity{UserID: id}, nil
}
