package api

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolBasic(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 2, MaxSlowWorkers: 1})

	require.NoError(t, pool.AcquireFast(context.Background()))
	assert.Equal(t, int64(1), pool.Stats().ActiveFast)

	pool.ReleaseFast()
	stats := pool.Stats()
	assert.Equal(t, int64(0), stats.ActiveFast)
	assert.Equal(t, int64(1), stats.TotalFast)
}

func TestWorkerPoolSlowFull(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 10, MaxSlowWorkers: 2})
	ctx := context.Background()

	require.NoError(t, pool.AcquireSlow(ctx))
	require.NoError(t, pool.AcquireSlow(ctx))
	assert.Equal(t, int64(2), pool.Stats().ActiveSlow)

	assert.False(t, pool.TryAcquireSlow(), "third slow slot should not be available")
	assert.Equal(t, int64(1), pool.Stats().Rejected)

	// The fast pool is independent.
	assert.True(t, pool.TryAcquireFast())
	pool.ReleaseFast()

	pool.ReleaseSlow()
	pool.ReleaseSlow()
	assert.Equal(t, int64(2), pool.Stats().TotalSlow)
}

func TestWorkerPoolContextCancellation(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 1, MaxSlowWorkers: 1})
	require.NoError(t, pool.AcquireFast(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pool.AcquireFast(ctx), context.Canceled)

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.AcquireFast(ctx), context.DeadlineExceeded)
	assert.Equal(t, int64(0), pool.Stats().QueuedFast)

	pool.ReleaseFast()
}

func TestWorkerPoolConcurrency(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 3, MaxSlowWorkers: 1})

	var (
		wg      sync.WaitGroup
		running atomic.Int64
		peak    atomic.Int64
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := pool.AcquireFast(context.Background()); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			pool.ReleaseFast()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(12), pool.Stats().TotalFast)
	assert.LessOrEqual(t, peak.Load(), int64(3))
}

func TestWorkerPoolDefaults(t *testing.T) {
	stats := NewWorkerPool(PoolConfig{}).Stats()
	def := DefaultPoolConfig()
	assert.Equal(t, def.MaxFastWorkers, stats.MaxFast)
	assert.Equal(t, def.MaxSlowWorkers, stats.MaxSlow)

	stats = NewWorkerPool(PoolConfig{MaxFastWorkers: 10, MaxSlowWorkers: 4}).Stats()
	assert.Equal(t, 10, stats.MaxFast)
	assert.Equal(t, 4, stats.MaxSlow)
}
