package client

import (
	"github.com/rs/zerolog/log"

	"github.com/bitelog/bitelog/client/internal/lifecycle"
	"github.com/bitelog/bitelog/client/internal/shardqueue"
)

// executor runs analysis jobs keyed by entry ID.
type executor = lifecycle.Executor

// newDefaultExecutor builds a shardqueue executor from BITELOG_SHARDS,
// BITELOG_QUEUE_SIZE and friends. Every session gets its own, since closing
// a session drains it.
func newDefaultExecutor() (executor, error) {
	cfg, err := shardqueue.LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg.ErrorHandler = func(key string, err error) {
		jobErrorsTotal.WithLabelValues(jobErrorKind(err)).Inc()
		log.Debug().Str("entry_id", key).Err(err).Msg("analysis job failed")
	}
	return shardqueue.NewShardExecutor(cfg), nil
}
