package shardqueue

import "context"

// Job is one unit of per-key work. Jobs sharing a key run in submission order.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc lets a closure be submitted as a Job.
type JobFunc func(ctx context.Context) error

// Run calls f.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }
