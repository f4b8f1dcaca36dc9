// Package client is the bitelog SDK: it captures meal photos, runs them
// through analysis and keeps the diary in sync with the service.
package client

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bitelog/bitelog/client/internal/analysis"
	"github.com/bitelog/bitelog/client/internal/gateway"
	"github.com/bitelog/bitelog/client/internal/identity"
	"github.com/bitelog/bitelog/client/internal/lifecycle"
	"github.com/bitelog/bitelog/client/internal/localstate"
)

// Client owns one diary session. The identity is resolved once and threaded
// through every call; Login and Logout start a new session.
type Client struct {
	cfg      Config
	http     *http.Client
	debug    bool
	kv       StateStore
	ownKV    *localstate.KV
	gw       *gateway.Client
	analyzer *analysis.Client
	ident    *identity.Resolver
	notifier Notifier
	observer Observer
	now      func() time.Time
	loc      *time.Location
	compress func([]byte) (string, error)
	newExec  func() (executor, error)

	mu      sync.Mutex
	session *lifecycle.Orchestrator

	closedOnce uint32
}

// New constructs a Client from cfg. Additional options can be provided via
// functional arguments.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("API URL cannot be empty")
	}
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{},
		now:     time.Now,
		loc:     time.Local,
		newExec: newDefaultExecutor,
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.debug {
		c.http.Transport = &debugTransport{base: c.http.Transport}
	}

	if c.kv == nil {
		path := ""
		if cfg.Home != "" {
			path = filepath.Join(cfg.Home, localstate.DBFilename)
		}
		kv, err := localstate.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open local state: %w", err)
		}
		c.kv, c.ownKV = kv, kv
	}

	c.gw = gateway.New(cfg.APIURL, c.http, cfg.HTTPTimeout)
	// The inference call has its own, longer timeout.
	c.analyzer = analysis.New(analysis.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.AnalysisTimeout,
	}, &http.Client{Transport: c.http.Transport})
	c.ident = identity.NewResolver(c.kv, c.gw)
	return c, nil
}

// Identity returns who the diary belongs to, creating an anonymous
// identity on first use.
func (c *Client) Identity() (Identity, error) {
	return c.ident.Resolve()
}

// Login signs in and starts a session for the account. Entries captured
// anonymously are not carried over.
func (c *Client) Login(ctx context.Context, email, name string) (Identity, error) {
	id, err := c.ident.Login(ctx, email, name)
	if err != nil {
		return Identity{}, err
	}
	identityChangesTotal.WithLabelValues("login").Inc()
	c.endSession()
	return id, nil
}

// Logout drops the account and starts a fresh anonymous session.
func (c *Client) Logout() (Identity, error) {
	id, err := c.ident.Logout()
	if err != nil {
		return Identity{}, err
	}
	identityChangesTotal.WithLabelValues("logout").Inc()
	c.endSession()
	return id, nil
}

func (c *Client) endSession() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()
	if s != nil {
		_ = s.Close()
	}
}

// orchestrator returns the session for the current identity, building it on
// first use.
func (c *Client) orchestrator() (*lifecycle.Orchestrator, error) {
	if atomic.LoadUint32(&c.closedOnce) == 1 {
		return nil, ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, nil
	}

	id, err := c.ident.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	exec, err := c.newExec()
	if err != nil {
		return nil, err
	}
	goal, err := localstate.LoadGoal(c.kv)
	if err != nil {
		log.Warn().Err(err).Msg("stored goal unreadable")
	}
	o, err := lifecycle.New(id.UserID, lifecycle.Deps{
		Gateway:         c.gw,
		Analyzer:        c.analyzer,
		Executor:        exec,
		Compress:        c.compress,
		Notifier:        c.notifier,
		Observer:        c.observer,
		Now:             c.now,
		Location:        c.loc,
		AnalysisTimeout: c.cfg.AnalysisTimeout,
		CalorieGoal:     goal,
	})
	if err != nil {
		exec.Stop()
		return nil, err
	}
	log.Debug().Str("user_id", id.UserID).Bool("anonymous", id.Anonymous()).Msg("session started")
	c.session = o
	return o, nil
}

// Capture stores a photo as a pending entry and starts its analysis. It
// returns as soon as the entry is visible; Await waits for the result.
func (c *Client) Capture(ctx context.Context, image []byte, answer WeightAnswer) (string, error) {
	if c.cfg.GeminiAPIKey == "" {
		return "", ErrAnalysisNotConfigured
	}
	o, err := c.orchestrator()
	if err != nil {
		return "", err
	}
	return o.Capture(ctx, image, answer)
}

// Await blocks until the analysis of entry id has settled.
func (c *Client) Await(ctx context.Context, id string) error {
	o, err := c.orchestrator()
	if err != nil {
		return err
	}
	return o.Await(ctx, id)
}

// Edit corrects the name or totals of a ready entry.
func (c *Client) Edit(ctx context.Context, id string, req EditRequest) error {
	o, err := c.orchestrator()
	if err != nil {
		return err
	}
	return o.Edit(ctx, id, req)
}

// RequestDelete starts the two-step delete of entry id.
func (c *Client) RequestDelete(id string) (*DeleteRequest, error) {
	o, err := c.orchestrator()
	if err != nil {
		return nil, err
	}
	return o.RequestDelete(id)
}

// Load fetches the entries of date from the service and makes it the
// active date.
func (c *Client) Load(ctx context.Context, date time.Time) error {
	o, err := c.orchestrator()
	if err != nil {
		return err
	}
	return o.Load(ctx, date)
}

// SetActiveDate selects the day Entries and Summary report on.
func (c *Client) SetActiveDate(date time.Time) error {
	o, err := c.orchestrator()
	if err != nil {
		return err
	}
	o.SetActiveDate(date)
	return nil
}

// Entries returns the active day's entries, newest first.
func (c *Client) Entries() ([]Entry, error) {
	o, err := c.orchestrator()
	if err != nil {
		return nil, err
	}
	return o.Entries(), nil
}

// Entry returns one entry of the session.
func (c *Client) Entry(id string) (Entry, bool) {
	o, err := c.orchestrator()
	if err != nil {
		return Entry{}, false
	}
	return o.Store().Get(id)
}

// Summary totals the active day against the calorie goal.
func (c *Client) Summary() (Summary, error) {
	o, err := c.orchestrator()
	if err != nil {
		return Summary{}, err
	}
	return o.Summary(), nil
}

// LoadSettings refreshes the calorie goal from the service.
func (c *Client) LoadSettings(ctx context.Context) (int, error) {
	o, err := c.orchestrator()
	if err != nil {
		return 0, err
	}
	goal, err := o.LoadSettings(ctx)
	if err != nil {
		return goal, err
	}
	return goal, localstate.SaveGoal(c.kv, goal)
}

// UpdateGoal stores a new calorie goal remotely and locally.
func (c *Client) UpdateGoal(ctx context.Context, goal int) error {
	o, err := c.orchestrator()
	if err != nil {
		return err
	}
	if err := o.UpdateGoal(ctx, goal); err != nil {
		return err
	}
	return localstate.SaveGoal(c.kv, o.Goal())
}

// SaveSnapshot writes the session's entries to local state. Images of
// past days are left out.
func (c *Client) SaveSnapshot() error {
	o, err := c.orchestrator()
	if err != nil {
		return err
	}
	return localstate.SaveEntries(c.kv, o.Store().All(), c.now().In(c.loc))
}

// RestoreSnapshot replaces the session's entries with the last snapshot,
// for use when the service is unreachable.
func (c *Client) RestoreSnapshot() (int, error) {
	o, err := c.orchestrator()
	if err != nil {
		return 0, err
	}
	entries, err := localstate.LoadEntries(c.kv)
	if err != nil {
		return 0, err
	}
	o.Restore(entries)
	return len(entries), nil
}

// Close drains running analyses and releases local state. Safe to call
// multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	c.endSession()
	if c.ownKV != nil {
		return c.ownKV.Close()
	}
	return nil
}
