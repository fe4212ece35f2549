package ratelimiter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wefthq/weft/pkg/ratelimiter"
)

func TestMemoryStoreConsume(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := ratelimiter.Config{
		Capacity:       8,
		RefillRate:     2,
		RefillInterval: 50 * time.Millisecond,
	}

	t.Run("first touch starts from full capacity", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore()
		remaining, resetAt, err := store.ConsumeTokens(ctx, "fresh", 3, cfg)
		require.NoError(t, err)
		assert.Equal(t, 5, remaining)
		assert.True(t, resetAt.After(time.Now()))
	})

	t.Run("remaining goes negative past exhaustion", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore()
		remaining, _, err := store.ConsumeTokens(ctx, "over", cfg.Capacity+3, cfg)
		require.NoError(t, err)
		assert.Equal(t, -3, remaining)
	})

	t.Run("tokens come back by whole refill intervals", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore()
		_, _, err := store.ConsumeTokens(ctx, "refill", cfg.Capacity, cfg)
		require.NoError(t, err)

		time.Sleep(cfg.RefillInterval + 10*time.Millisecond)

		remaining, _, err := store.ConsumeTokens(ctx, "refill", 0, cfg)
		require.NoError(t, err)
		assert.Equal(t, cfg.RefillRate, remaining)
	})

	t.Run("refill never exceeds capacity", func(t *testing.T) {
		t.Parallel()

		// A tiny interval simulates a bucket left idle for many refill
		// cycles; the interval cap keeps the arithmetic from overflowing.
		idle := ratelimiter.Config{
			Capacity:       500,
			RefillRate:     50,
			RefillInterval: time.Millisecond,
		}

		store := ratelimiter.NewMemoryStore()
		_, _, err := store.ConsumeTokens(ctx, "idle", idle.Capacity, idle)
		require.NoError(t, err)

		time.Sleep(100 * time.Millisecond)

		remaining, _, err := store.ConsumeTokens(ctx, "idle", 0, idle)
		require.NoError(t, err)
		assert.Equal(t, idle.Capacity, remaining)
	})

	t.Run("reset forgets the bucket", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore()
		_, _, err := store.ConsumeTokens(ctx, "gone", 6, cfg)
		require.NoError(t, err)

		require.NoError(t, store.Reset(ctx, "gone"))
		require.NoError(t, store.Reset(ctx, "never-existed"))

		remaining, _, err := store.ConsumeTokens(ctx, "gone", 0, cfg)
		require.NoError(t, err)
		assert.Equal(t, cfg.Capacity, remaining)
	})
}

func TestMemoryStoreCleanup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := ratelimiter.Config{
		Capacity:       4,
		RefillRate:     1,
		RefillInterval: time.Second,
	}

	t.Run("stale buckets are swept past the threshold", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore(
			ratelimiter.WithCleanupInterval(20*time.Millisecond),
			ratelimiter.WithStaleThreshold(30*time.Millisecond),
		)

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() { _ = store.Start(runCtx) }()
		defer store.Close()

		_, _, err := store.ConsumeTokens(ctx, "stale", 1, cfg)
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return store.Stats().ActiveBuckets == 0
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, int64(1), store.Stats().BucketsRemoved)
	})

	t.Run("active buckets survive the sweep", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore(
			ratelimiter.WithCleanupInterval(20*time.Millisecond),
			ratelimiter.WithStaleThreshold(time.Hour),
		)

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() { _ = store.Start(runCtx) }()
		defer store.Close()

		_, _, err := store.ConsumeTokens(ctx, "warm", 1, cfg)
		require.NoError(t, err)

		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, 1, store.Stats().ActiveBuckets)
	})
}

func TestMemoryStoreLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("start twice is an error", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(20 * time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = store.Start(ctx) }()

		require.Eventually(t, func() bool {
			return store.Stats().IsRunning
		}, time.Second, 5*time.Millisecond)

		err := store.Start(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already started")

		require.NoError(t, store.Stop())
		assert.False(t, store.Stats().IsRunning)
	})

	t.Run("stop without start is an error", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore()
		assert.Error(t, store.Stop())
	})

	t.Run("start refuses a non-positive cleanup interval", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
		assert.Error(t, store.Start(context.Background()))
	})

	t.Run("run stops cleanly on context cancellation", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(20 * time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- store.Run(ctx)() }()

		require.Eventually(t, func() bool {
			return store.Stats().IsRunning
		}, time.Second, 5*time.Millisecond)

		cancel()
		assert.NoError(t, <-errCh)
		assert.False(t, store.Stats().IsRunning)
	})

	t.Run("healthcheck tracks the cleanup loop", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(20 * time.Millisecond))
		assert.Error(t, store.Healthcheck(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = store.Start(ctx) }()

		require.Eventually(t, func() bool {
			return store.Healthcheck(context.Background()) == nil
		}, time.Second, 5*time.Millisecond)

		store.Close()
		assert.Error(t, store.Healthcheck(context.Background()))
	})
}

func TestMemoryStoreStats(t *testing.T) {
	t.Parallel()

	t.Run("counts created buckets", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		cfg := ratelimiter.Config{Capacity: 4, RefillRate: 1, RefillInterval: time.Second}

		store := ratelimiter.NewMemoryStore()
		for _, key := range []string{"a", "b", "c"} {
			_, _, err := store.ConsumeTokens(ctx, key, 1, cfg)
			require.NoError(t, err)
		}
		// Revisiting a key does not create a new bucket.
		_, _, err := store.ConsumeTokens(ctx, "a", 1, cfg)
		require.NoError(t, err)

		stats := store.Stats()
		assert.Equal(t, int64(3), stats.BucketsCreated)
		assert.Equal(t, 3, stats.ActiveBuckets)
		assert.False(t, stats.IsRunning)
	})
}

func TestMemoryStoreConcurrency(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := ratelimiter.Config{
		Capacity:       200,
		RefillRate:     1,
		RefillInterval: time.Hour,
	}

	t.Run("consumption on one key is atomic", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore()

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 10 {
					_, _, err := store.ConsumeTokens(ctx, "shared", 1, cfg)
					assert.NoError(t, err)
				}
			}()
		}
		wg.Wait()

		remaining, _, err := store.ConsumeTokens(ctx, "shared", 0, cfg)
		require.NoError(t, err)
		assert.Equal(t, cfg.Capacity-100, remaining)
	})

	t.Run("consume and reset interleave safely during sweeps", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore(
			ratelimiter.WithCleanupInterval(10*time.Millisecond),
			ratelimiter.WithStaleThreshold(10*time.Millisecond),
		)

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() { _ = store.Start(runCtx) }()
		defer store.Close()

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				key := []string{"red", "green", "blue", "cyan"}[n%4]
				for j := range 50 {
					if j%10 == 9 {
						assert.NoError(t, store.Reset(ctx, key))
						time.Sleep(5 * time.Millisecond)
						continue
					}
					_, _, err := store.ConsumeTokens(ctx, key, 1, cfg)
					assert.NoError(t, err)
				}
			}(i)
		}
		wg.Wait()
	})
}
