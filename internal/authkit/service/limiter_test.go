package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyedLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	kl := newKeyedLimiter(RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}, now)

	t.Run("burst then refuse", func(t *testing.T) {
		for range 3 {
			require.True(t, kl.allow("alice", now))
		}
		require.False(t, kl.allow("alice", now))
		require.InDelta(t, float64(20*time.Second), float64(kl.retryAfter("alice", now)), float64(time.Millisecond))
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.True(t, kl.allow("bob", now))
	})

	t.Run("refills over time", func(t *testing.T) {
		require.True(t, kl.allow("alice", now.Add(21*time.Second)))
		require.False(t, kl.allow("alice", now.Add(21*time.Second)))
	})
}

func TestKeyedLimiter_Disabled(t *testing.T) {
	kl := newKeyedLimiter(RateLimitConfig{}, time.Now())
	require.Nil(t, kl)

	for range 100 {
		require.True(t, kl.allow("alice", time.Now()))
	}
	require.Zero(t, kl.retryAfter("alice", time.Now()))
}

func TestKeyedLimiter_DefaultBurst(t *testing.T) {
	kl := newKeyedLimiter(RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute}, time.Now())
	require.Equal(t, 2, kl.burst)
}

func TestKeyedLimiter_CleanupDropsIdleKeys(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	kl := newKeyedLimiter(DefaultLoginLimit, now)

	require.True(t, kl.allow("alice", now))

	later := now.Add(cleanupInterval + time.Second)
	require.True(t, kl.allow("bob", later)) // creating bob triggers the sweep

	_, ok := kl.limiters.Load("alice")
	require.False(t, ok, "alice's bucket is full again and was dropped")
	_, ok = kl.limiters.Load("bob")
	require.True(t, ok)
}
