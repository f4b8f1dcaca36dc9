package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/bitelog/bitelog/server/internal/health"
	"github.com/bitelog/bitelog/server/internal/model"
	"github.com/rs/zerolog"
)

// StoreHealthChecker caches the result of periodic store probes.
type StoreHealthChecker struct {
	store        Store
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewStoreHealthChecker creates a checker that starts unhealthy until its
// first successful probe.
func NewStoreHealthChecker(store Store, log zerolog.Logger, probeTimeout time.Duration) *StoreHealthChecker {
	hc := &StoreHealthChecker{
		store:        store,
		log:          log,
		probeTimeout: probeTimeout,
	}
	hc.healthy.Store(0)
	return hc
}

func (hc *StoreHealthChecker) Name() string { return "store" }

// IsHealthy returns the cached status without blocking.
func (hc *StoreHealthChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

// Start probes once immediately and then on every tick until ctx ends.
func (hc *StoreHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	hc.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hc.check(ctx)
		}
	}
}

func (hc *StoreHealthChecker) check(ctx context.Context) {
	to := hc.probeTimeout
	if to <= 0 {
		to = 2 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	if err := hc.probe(probeCtx); err != nil {
		hc.log.Error().Stack().
			Str("checker", hc.Name()).
			Err(err).
			Msg("store health check failed")
		hc.healthy.Store(0)
		return
	}
	hc.healthy.Store(1)
}

func (hc *StoreHealthChecker) probe(ctx context.Context) error {
	if p, ok := hc.store.(health.Pinger); ok {
		return p.HealthPing(ctx)
	}
	// A lookup that must miss still proves the store answers.
	_, err := hc.store.Settings().Get(ctx, "__health_check__")
	if err == nil || errors.Is(err, model.ErrNotFound) {
		return nil
	}
	return err
}
