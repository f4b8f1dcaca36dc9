package diaryservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/bitelog/bitelog/server/internal/api"
	"github.com/bitelog/bitelog/server/internal/config"
	"github.com/bitelog/bitelog/server/internal/factory"
	"github.com/bitelog/bitelog/server/internal/health"
	"github.com/bitelog/bitelog/server/internal/logger"
	"github.com/bitelog/bitelog/server/internal/services"
	"github.com/bitelog/bitelog/server/internal/store"
)

// Run starts the diary HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("bitelog-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("time_zone", cfg.TimeZone).
		Msg("Diary service starting")

	ctx, stop := newServerContext()
	defer stop()

	st, images, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	svcHealth := startHealthCheckers(ctx, cfg, log, st)
	router := buildRouter(st, images, svcHealth, cfg, log)

	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, services.ImageSink, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, nil, err
	}
	images, err := factory.NewImageSink(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Image sink unavailable")
		return nil, nil, err
	}
	return st, images, nil
}

func buildRouter(st store.Store, images services.ImageSink, h api.HealthReporter, cfg *config.Config, log zerolog.Logger) *mux.Router {
	return api.NewRouter(api.Deps{
		Users:    services.NewUserService(st, cfg.DefaultCalorieGoal),
		Settings: services.NewSettingsService(st, cfg.DefaultCalorieGoal),
		Entries:  services.NewEntryService(st, images, cfg.Location()),
		Health:   h,
		Log:      log,
	})
}

func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// startupHealthTimeout is twice the probe interval, never below 60 seconds.
func startupHealthTimeout(healthIntervalSeconds int) time.Duration {
	secs := healthIntervalSeconds * 2
	if secs < 60 {
		secs = 60
	}
	return time.Duration(secs) * time.Second
}

// waitUntilHealthy blocks until the aggregate checker reports healthy or the
// startup window closes.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	window := startupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(window)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %s", window)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
