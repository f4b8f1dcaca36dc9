// Package gateway talks to the diary service. Calls never return a Go error
// or panic; every outcome is folded into a Result.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bitelog/bitelog/client/internal/analysis"
)

// DateLayout is the calendar-date format of the list filter.
const DateLayout = "2006-01-02"

// Client is a thin JSON client over the /api routes.
type Client struct {
	http *resty.Client
}

// New builds a Client for baseURL on top of hc. A nil hc gets a fresh
// http.Client.
func New(baseURL string, hc *http.Client, timeout time.Duration) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{http: r}
}

type errorBody struct {
	Error string `json:"error"`
}

// do executes req and maps the outcome. unwrap extracts T from the decoded
// success envelope.
func do[E any, T any](req *resty.Request, method, path string, unwrap func(*E) T) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Error: fmt.Sprint(r)}
		}
	}()

	var (
		env E
		eb  errorBody
	)
	resp, err := req.SetResult(&env).SetError(&eb).Execute(method, path)
	if err != nil {
		return Result[T]{Error: err.Error()}
	}
	if resp.IsError() {
		msg := eb.Error
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode())
		}
		return Result[T]{Error: msg, StatusCode: resp.StatusCode()}
	}
	return Result[T]{Success: true, Data: unwrap(&env), StatusCode: resp.StatusCode()}
}

type entryEnvelope struct {
	Entry Entry `json:"entry"`
}

type entriesEnvelope struct {
	Entries []Entry `json:"entries"`
}

type settingsEnvelope struct {
	Settings Settings `json:"settings"`
}

type userEnvelope struct {
	User Account `json:"user"`
}

type messageEnvelope struct {
	Message string `json:"message"`
}

func entryOf(e *entryEnvelope) Entry          { return e.Entry }
func settingsOf(e *settingsEnvelope) Settings { return e.Settings }

// CreateEntry persists a new row owned by userID.
func (c *Client) CreateEntry(ctx context.Context, userID string, in CreateEntryInput) Result[Entry] {
	body := map[string]any{
		"user_id":              userID,
		"timestamp":            in.Timestamp,
		"image_url":            in.ImageURL,
		"analysis_data":        in.Analysis,
		"user_provided_weight": in.UserProvidedWeight,
	}
	return do(c.http.R().SetContext(ctx).SetBody(body), http.MethodPost, "/api/entries", entryOf)
}

// UpdateEntryAnalysis replaces analysis_data on a row owned by userID.
func (c *Client) UpdateEntryAnalysis(ctx context.Context, userID, entryID string, a *analysis.Result) Result[Entry] {
	body := map[string]any{"user_id": userID, "analysis_data": a}
	return do(c.http.R().SetContext(ctx).SetBody(body).SetPathParam("id", entryID),
		http.MethodPut, "/api/entries/{id}", entryOf)
}

// DeleteEntry removes a row owned by userID.
func (c *Client) DeleteEntry(ctx context.Context, userID, entryID string) Result[string] {
	body := map[string]any{"user_id": userID}
	return do(c.http.R().SetContext(ctx).SetBody(body).SetPathParam("id", entryID),
		http.MethodDelete, "/api/entries/{id}", func(e *messageEnvelope) string { return e.Message })
}

// ListEntries returns userID's rows, newest first. With a date, the service
// restricts them to that calendar day in the date's own zone.
func (c *Client) ListEntries(ctx context.Context, userID string, date *time.Time) Result[[]Entry] {
	req := c.http.R().SetContext(ctx).SetQueryParam("user_id", userID)
	if date != nil {
		req.SetQueryParam("date", date.Format(DateLayout))
		req.SetQueryParam("tz", zoneParam(*date))
	}
	return do(req, http.MethodGet, "/api/entries", func(e *entriesEnvelope) []Entry {
		if e.Entries == nil {
			return []Entry{}
		}
		return e.Entries
	})
}

// zoneParam names the zone of date for the service. Zones without a loadable
// IANA name (time.Local read from /etc/localtime, fixed zones) are sent as the
// UTC offset in effect at that day's local midnight.
func zoneParam(date time.Time) string {
	loc := date.Location()
	if name := loc.String(); name != "" && name != "Local" {
		if _, err := time.LoadLocation(name); err == nil {
			return name
		}
	}
	y, m, d := date.Date()
	_, off := time.Date(y, m, d, 0, 0, 0, 0, loc).Zone()
	sign := '+'
	if off < 0 {
		sign, off = '-', -off
	}
	return fmt.Sprintf("%c%02d:%02d", sign, off/3600, off%3600/60)
}

// GetSettings reads settings; the service creates defaults on first read.
func (c *Client) GetSettings(ctx context.Context, userID string) Result[Settings] {
	return do(c.http.R().SetContext(ctx).SetPathParam("userId", userID),
		http.MethodGet, "/api/settings/{userId}", settingsOf)
}

// UpdateSettings upserts the calorie goal.
func (c *Client) UpdateSettings(ctx context.Context, userID string, calorieGoal int) Result[Settings] {
	body := map[string]any{"calorie_goal": calorieGoal}
	return do(c.http.R().SetContext(ctx).SetBody(body).SetPathParam("userId", userID),
		http.MethodPut, "/api/settings/{userId}", settingsOf)
}

// Login finds or creates the account for email.
func (c *Client) Login(ctx context.Context, email, name string) Result[Account] {
	body := map[string]any{"email": email, "name": name}
	return do(c.http.R().SetContext(ctx).SetBody(body),
		http.MethodPost, "/api/auth/login", func(e *userEnvelope) Account { return e.User })
}
