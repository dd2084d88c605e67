// Package ratelimit bounds outbound work with a concurrency cap and a minimum
// spacing between task starts. A single Limiter is safe to share across
// goroutines and across crawls.
package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	DefaultConcurrency = 2
	DefaultSpacing     = 500 * time.Millisecond
)

// Limiter admits at most N concurrent tasks, and starts them no closer together
// than the configured spacing.
type Limiter struct {
	sem      *semaphore.Weighted
	starts   *rate.Limiter
	inFlight atomic.Int64
}

// New creates a Limiter. Non-positive concurrency falls back to
// DefaultConcurrency; a non-positive spacing disables spacing.
func New(concurrency int, spacing time.Duration) *Limiter {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	limit := rate.Inf
	if spacing > 0 {
		limit = rate.Every(spacing)
	}
	return &Limiter{
		sem:    semaphore.NewWeighted(int64(concurrency)),
		starts: rate.NewLimiter(limit, 1),
	}
}

// Do runs task once a slot is free and the spacing since the previous start
// has elapsed. The task's error is returned unchanged. The slot is released
// however the task ends, including a panic.
func (l *Limiter) Do(ctx context.Context, task func(context.Context) error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)

	if err := l.starts.Wait(ctx); err != nil {
		return err
	}

	l.inFlight.Add(1)
	defer l.inFlight.Add(-1)

	return task(ctx)
}

// InFlight returns the number of tasks currently running.
func (l *Limiter) InFlight() int64 {
	return l.inFlight.Load()
}

// Schedule runs task through l and hands back its result.
func Schedule[T any](ctx context.Context, l *Limiter, task func(context.Context) (T, error)) (T, error) {
	var out T
	err := l.Do(ctx, func(ctx context.Context) error {
		v, err := task(ctx)
		out = v
		return err
	})
	return out, err
}
