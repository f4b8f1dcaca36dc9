package client

import (
	"fmt"
	"net/http"
	"time"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPClient replaces the http.Client used for service calls. Its
// transport is shared with the inference client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.http = hc
		return nil
	}
}

// WithHTTPTimeout bounds a single service request. The value must be
// greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.cfg.HTTPTimeout = d
		return nil
	}
}

// WithDebugLogging wraps the transport so each request and response is
// dumped at debug level when enabled is true.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			c.debug = true
		}
		return nil
	}
}

// WithStateStore replaces the on-disk local state, mostly for tests.
func WithStateStore(s StateStore) Option {
	return func(c *Client) error {
		if s == nil {
			return fmt.Errorf("state store must not be nil")
		}
		c.kv = s
		return nil
	}
}

// WithNotifier receives blocking failures meant for the user.
func WithNotifier(n Notifier) Option {
	return func(c *Client) error {
		c.notifier = n
		return nil
	}
}

// WithObserver receives every entry lifecycle transition.
func WithObserver(o Observer) Option {
	return func(c *Client) error {
		c.observer = o
		return nil
	}
}

// WithClock overrides the capture time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		c.now = now
		return nil
	}
}

// WithLocation sets the zone that defines a calendar day.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) error {
		if loc == nil {
			return fmt.Errorf("location must not be nil")
		}
		c.loc = loc
		return nil
	}
}

// withImageCompressor lets tests skip real image decoding.
func withImageCompressor(fn func([]byte) (string, error)) Option {
	return func(c *Client) error {
		c.compress = fn
		return nil
	}
}
