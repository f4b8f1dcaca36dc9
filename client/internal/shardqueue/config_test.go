package shardqueue

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Shards != 4 || cfg.QueueSize != 128 || cfg.MaxAttempts != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BITELOG_SHARDS", "8")
	t.Setenv("BITELOG_QUEUE_SIZE", "256")
	t.Setenv("BITELOG_ENQUEUE_TIMEOUT", "250ms")
	t.Setenv("BITELOG_JOB_MAX_ATTEMPTS", "3")
	t.Setenv("BITELOG_JOB_BASE_BACKOFF", "200ms")
	t.Setenv("BITELOG_JOB_MAX_INTERVAL", "5s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Shards != 8 || cfg.QueueSize != 256 || cfg.MaxAttempts != 3 {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.EnqueueTimeout != 250*time.Millisecond || cfg.BaseBackoff != 200*time.Millisecond || cfg.MaxInterval != 5*time.Second {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
}

func TestConfig_WithDefaultsFillsZeroValues(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Shards != 4 || cfg.QueueSize != 128 || cfg.MaxAttempts != 1 || cfg.EnqueueTimeout != 100*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestQueueFullError_Is(t *testing.T) {
	e := &QueueFullError{Shard: 3, Length: 10, Capacity: 16}
	if e.Error() == "" || !errors.Is(e, ErrQueueFull) || errors.Is(e, ErrExecutorClosed) {
		t.Fatalf("unexpected QueueFullError behaviour: %v", e)
	}
}
