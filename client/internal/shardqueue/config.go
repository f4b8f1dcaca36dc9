package shardqueue

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config groups the executor tunables. LoadConfig reads them from the
// BITELOG_ prefix, e.g. BITELOG_SHARDS=8 BITELOG_QUEUE_SIZE=256.
type Config struct {
	Shards         int           `envconfig:"SHARDS"          default:"4"`
	QueueSize      int           `envconfig:"QUEUE_SIZE"      default:"128"`
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`

	// MaxAttempts of 1 runs each job once.
	MaxAttempts int           `envconfig:"JOB_MAX_ATTEMPTS" default:"1"`
	BaseBackoff time.Duration `envconfig:"JOB_BASE_BACKOFF" default:"100ms"`
	MaxInterval time.Duration `envconfig:"JOB_MAX_INTERVAL" default:"20s"`

	// ErrorHandler receives the final error of a job, a recovered panic, or
	// ctx.Err() for a job skipped because its context ended.
	ErrorHandler func(key string, err error) `envconfig:"-"`
}

// LoadConfig populates Config from the environment.
func LoadConfig() (Config, error) {
	var c Config
	return c, envconfig.Process("BITELOG", &c)
}

func (c Config) withDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 128
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 20 * time.Second
	}
	return c
}
