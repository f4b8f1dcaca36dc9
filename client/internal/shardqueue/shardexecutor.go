// Package shardqueue runs keyed jobs on a fixed set of worker goroutines.
// Jobs that share a key land on the same shard and run one at a time in
// submission order; different keys may run in parallel.
package shardqueue

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	clienterrors "github.com/bitelog/bitelog/client/internal/errors"
)

type queuedJob struct {
	ctx context.Context
	key string
	job Job
}

// ShardExecutor partitions jobs by a stable hash of their key.
type ShardExecutor struct {
	cfg    Config
	queues []chan queuedJob

	done   chan struct{}
	closed atomic.Bool

	wg sync.WaitGroup
}

// NewShardExecutor starts one worker per shard.
func NewShardExecutor(cfg Config) *ShardExecutor {
	cfg = cfg.withDefaults()
	p := &ShardExecutor{
		cfg:    cfg,
		queues: make([]chan queuedJob, cfg.Shards),
		done:   make(chan struct{}),
	}
	for i := range p.queues {
		ch := make(chan queuedJob, cfg.QueueSize)
		p.queues[i] = ch
		p.wg.Add(1)
		go p.runWorker(i, ch)
	}
	return p
}

// Submit enqueues job on the shard for key. It returns ErrExecutorClosed after
// Stop, a *QueueFullError when the shard stays full for EnqueueTimeout, or
// ctx.Err() if ctx ends first. ctx is also handed to the job when it runs.
func (p *ShardExecutor) Submit(ctx context.Context, key string, job Job) error {
	if p.closed.Load() {
		return ErrExecutorClosed
	}
	select {
	case <-p.done:
		return ErrExecutorClosed
	default:
	}

	shard := p.shardFor(key)
	ch := p.queues[shard]

	timer := time.NewTimer(p.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- queuedJob{ctx: ctx, key: key, job: job}:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil
	case <-p.done:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{Shard: shard, Length: len(ch), Capacity: cap(ch)}
	}
}

// Barrier waits until every job submitted for key before the call has run.
func (p *ShardExecutor) Barrier(ctx context.Context, key string) error {
	done := make(chan struct{})
	if err := p.Submit(ctx, key, JobFunc(func(context.Context) error {
		close(done)
		return nil
	})); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Stop rejects new work, lets every worker drain its queue and waits for
// them. Safe to call more than once.
func (p *ShardExecutor) Stop() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	log.Debug().Int("shards", p.cfg.Shards).Msg("shardqueue: draining")
	close(p.done)
	p.wg.Wait()
	log.Debug().Msg("shardqueue: stopped")
}

// Close lets ShardExecutor satisfy io.Closer.
func (p *ShardExecutor) Close() error {
	p.Stop()
	return nil
}

func (p *ShardExecutor) runWorker(idx int, ch <-chan queuedJob) {
	defer p.wg.Done()
	label := labelFor(idx)

	for {
		select {
		case qj := <-ch:
			p.process(label, qj)
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-p.done:
			drained := 0
			for {
				select {
				case qj := <-ch:
					p.process(label, qj)
					drained++
				default:
					if drained > 0 {
						log.Debug().Int("shard", idx).Int("jobs", drained).Msg("shardqueue: drained")
					}
					queueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

// process runs one job with retries. Irrecoverable errors and MaxAttempts=1
// end the loop after the first failure.
func (p *ShardExecutor) process(label string, qj queuedJob) {
	if qj.job == nil {
		return
	}
	if err := qj.ctx.Err(); err != nil {
		p.safeHandleError(qj.key, err)
		return
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.BaseBackoff
	exp.MaxInterval = p.cfg.MaxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := p.runOnce(label, qj)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		if err == nil {
			return
		}
		if attempt >= p.cfg.MaxAttempts || clienterrors.IsIrrecoverable(err) {
			p.safeHandleError(qj.key, err)
			return
		}

		select {
		case <-time.After(exp.NextBackOff()):
		case <-qj.ctx.Done():
			p.safeHandleError(qj.key, qj.ctx.Err())
			return
		}
	}
}

// runOnce converts a panic into a *PanicError so the shard keeps going.
func (p *ShardExecutor) runOnce(label string, qj queuedJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			jobPanicsTotal.WithLabelValues(label).Inc()
			log.Error().Str("key", qj.key).Interface("panic", r).Msg("shardqueue: job panic")
			err = clienterrors.MarkIrrecoverable(&PanicError{Value: r})
		}
	}()
	return qj.job.Run(qj.ctx)
}

func (p *ShardExecutor) safeHandleError(key string, err error) {
	if err == nil || p.cfg.ErrorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("shardqueue: error handler panic")
		}
	}()
	p.cfg.ErrorHandler(key, err)
}

func (p *ShardExecutor) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.cfg.Shards))
}
