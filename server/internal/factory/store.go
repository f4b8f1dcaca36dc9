package factory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/bitelog/bitelog/server/internal/config"
	storepkg "github.com/bitelog/bitelog/server/internal/store"
	storepg "github.com/bitelog/bitelog/server/internal/store/postgres"
	storelite "github.com/bitelog/bitelog/server/internal/store/sqlite"
)

// NewStore opens the database selected by cfg.DBDriver and applies the schema
// before returning. Postgres connections are retried with exponential backoff
// for up to BootstrapTimeoutSeconds so the service can start alongside its
// database container.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	timeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	bootCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch cfg.DBDriver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("BITELOG_SERVICE_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := openPostgres(bootCtx, cfg.PostgresDSN, log)
		if err != nil {
			return nil, err
		}
		if err := storepg.Bootstrap(bootCtx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres bootstrap: %w", err)
		}
		log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap completed")
		return storepg.NewWithDB(db), nil

	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = "bitelog.db"
		}
		db, err := storelite.Open(path)
		if err != nil {
			return nil, err
		}
		if err := storelite.EnsureSchema(bootCtx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
		log.Debug().Str("driver", cfg.DBDriver).Str("path", path).Msg("store bootstrap completed")
		return storelite.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

func openPostgres(ctx context.Context, dsn string, log zerolog.Logger) (*sql.DB, error) {
	var db *sql.DB
	op := func() error {
		var err error
		db, err = storepg.Open(dsn)
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("postgres not reachable yet")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(backoff.NewExponentialBackOff(), ctx), notify); err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}
