package api

import (
	"context"
	"sync/atomic"
)

// WorkerPool bounds concurrent request processing. Searches at difficulty
// depth return in milliseconds and share the fast pool; full-position
// analysis and tournaments run in the smaller slow pool.
type WorkerPool struct {
	fastSem chan struct{} // Semaphore for moves, evaluate, search, tutor
	slowSem chan struct{} // Semaphore for analyze, tournament

	queuedFast atomic.Int64
	queuedSlow atomic.Int64
	activeFast atomic.Int64
	activeSlow atomic.Int64
	totalFast  atomic.Int64
	totalSlow  atomic.Int64
	rejected   atomic.Int64 // Try* calls that found the pool full
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	MaxFastWorkers int // Max concurrent fast operations (default: 64)
	MaxSlowWorkers int // Max concurrent slow operations (default: 2)
}

// DefaultPoolConfig returns a PoolConfig with sensible defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxFastWorkers: 64,
		MaxSlowWorkers: 2,
	}
}

// NewWorkerPool creates a new worker pool with the given configuration.
// Non-positive limits fall back to the defaults.
func NewWorkerPool(config PoolConfig) *WorkerPool {
	def := DefaultPoolConfig()
	if config.MaxFastWorkers <= 0 {
		config.MaxFastWorkers = def.MaxFastWorkers
	}
	if config.MaxSlowWorkers <= 0 {
		config.MaxSlowWorkers = def.MaxSlowWorkers
	}

	return &WorkerPool{
		fastSem: make(chan struct{}, config.MaxFastWorkers),
		slowSem: make(chan struct{}, config.MaxSlowWorkers),
	}
}

func acquire(ctx context.Context, sem chan struct{}, queued, active *atomic.Int64) error {
	queued.Add(1)
	defer queued.Add(-1)

	select {
	case sem <- struct{}{}:
		active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *WorkerPool) tryAcquire(sem chan struct{}, active *atomic.Int64) bool {
	select {
	case sem <- struct{}{}:
		active.Add(1)
		return true
	default:
		p.rejected.Add(1)
		return false
	}
}

func release(sem chan struct{}, active, total *atomic.Int64) {
	active.Add(-1)
	total.Add(1)
	<-sem
}

// AcquireFast acquires a slot for a fast operation.
// Returns an error if the context is cancelled while waiting.
func (p *WorkerPool) AcquireFast(ctx context.Context) error {
	return acquire(ctx, p.fastSem, &p.queuedFast, &p.activeFast)
}

// ReleaseFast releases a fast operation slot.
func (p *WorkerPool) ReleaseFast() {
	release(p.fastSem, &p.activeFast, &p.totalFast)
}

// AcquireSlow acquires a slot for a slow operation.
// Returns an error if the context is cancelled while waiting.
func (p *WorkerPool) AcquireSlow(ctx context.Context) error {
	return acquire(ctx, p.slowSem, &p.queuedSlow, &p.activeSlow)
}

// ReleaseSlow releases a slow operation slot.
func (p *WorkerPool) ReleaseSlow() {
	release(p.slowSem, &p.activeSlow, &p.totalSlow)
}

// TryAcquireFast tries to acquire a fast slot without blocking.
func (p *WorkerPool) TryAcquireFast() bool {
	return p.tryAcquire(p.fastSem, &p.activeFast)
}

// TryAcquireSlow tries to acquire a slow slot without blocking.
func (p *WorkerPool) TryAcquireSlow() bool {
	return p.tryAcquire(p.slowSem, &p.activeSlow)
}

// PoolStats is a snapshot of the pool counters.
type PoolStats struct {
	ActiveFast int64 `json:"active_fast"`
	ActiveSlow int64 `json:"active_slow"`
	QueuedFast int64 `json:"queued_fast"`
	QueuedSlow int64 `json:"queued_slow"`
	TotalFast  int64 `json:"total_fast"`
	TotalSlow  int64 `json:"total_slow"`
	Rejected   int64 `json:"rejected"`
	MaxFast    int   `json:"max_fast"`
	MaxSlow    int   `json:"max_slow"`
}

// Stats returns current pool statistics.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		ActiveFast: p.activeFast.Load(),
		ActiveSlow: p.activeSlow.Load(),
		QueuedFast: p.queuedFast.Load(),
		QueuedSlow: p.queuedSlow.Load(),
		TotalFast:  p.totalFast.Load(),
		TotalSlow:  p.totalSlow.Load(),
		Rejected:   p.rejected.Load(),
		MaxFast:    cap(p.fastSem),
		MaxSlow:    cap(p.slowSem),
	}
}
