package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig defines how many login attempts a single username gets.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of attempts allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// DefaultLoginLimit allows 5 attempts per minute, all 5 available as a burst.
var DefaultLoginLimit = RateLimitConfig{
	RequestsPerWindow: 5,
	Window:            time.Minute,
	Burst:             5,
}

const cleanupInterval = 5 * time.Minute

// keyedLimiter hands out one token bucket per key (username).
type keyedLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func newKeyedLimiter(cfg RateLimitConfig, now time.Time) *keyedLimiter {
	if cfg.RequestsPerWindow <= 0 || cfg.Window <= 0 {
		return nil // unlimited
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerWindow
	}
	return &keyedLimiter{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       burst,
		lastCleanup: now,
	}
}

// allow reports whether key may attempt now, consuming a token if so.
// A nil limiter allows everything.
func (kl *keyedLimiter) allow(key string, now time.Time) bool {
	if kl == nil {
		return true
	}
	return kl.get(key, now).AllowN(now, 1)
}

// retryAfter reports how long key has to wait for its next token.
func (kl *keyedLimiter) retryAfter(key string, now time.Time) time.Duration {
	if kl == nil {
		return 0
	}
	r := kl.get(key, now).ReserveN(now, 1)
	defer r.CancelAt(now)
	return r.DelayFrom(now)
}

func (kl *keyedLimiter) get(key string, now time.Time) *rate.Limiter {
	if l, ok := kl.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}

	// Sweep before storing so the new, still full, bucket survives.
	kl.maybeCleanup(now)
	actual, _ := kl.limiters.LoadOrStore(key, rate.NewLimiter(kl.rate, kl.burst))
	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket is full again, i.e. idle keys.
func (kl *keyedLimiter) maybeCleanup(now time.Time) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	if now.Sub(kl.lastCleanup) < cleanupInterval {
		return
	}
	kl.lastCleanup = now

	kl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).TokensAt(now) >= float64(kl.burst) {
			kl.limiters.Delete(key)
		}
		return true
	})
}
