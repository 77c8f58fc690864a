package ratelimit

import (
	"sync"
	"time"
)

// Config stores token bucket settings. Rate is tokens added per second and
// Burst is the bucket capacity. Buckets idle longer than TTL are evicted
// (0 disables eviction); MaxBuckets caps the number of tracked keys, 0
// meaning unbounded.
type Config struct {
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// TokenBucketLimiter keeps one refillable token bucket per key.
type TokenBucketLimiter struct {
	cfg   Config
	clock Clock

	mu        sync.Mutex
	buckets   map[string]*bucket
	nextSweep time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewTokenBucketLimiter creates a limiter. A nil clock falls back to the
// system clock; non-positive Rate and Burst are clamped to 1.
func NewTokenBucketLimiter(clock Clock, cfg Config) *TokenBucketLimiter {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxBuckets < 0 {
		cfg.MaxBuckets = 0
	}
	return &TokenBucketLimiter{
		cfg:     cfg,
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether key may proceed, consuming one token if so. A new
// key is denied outright when the bucket table is full.
func (l *TokenBucketLimiter) Allow(key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		if l.cfg.MaxBuckets > 0 && len(l.buckets) >= l.cfg.MaxBuckets {
			return false
		}
		b = &bucket{tokens: float64(l.cfg.Burst), seen: now}
		l.buckets[key] = b
	} else {
		if dt := now.Sub(b.seen); dt > 0 {
			b.tokens += dt.Seconds() * l.cfg.Rate
			if limit := float64(l.cfg.Burst); b.tokens > limit {
				b.tokens = limit
			}
		}
		b.seen = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops idle buckets. It runs at most once a minute, or once per
// half TTL when that is longer, so hot paths rarely pay for it.
func (l *TokenBucketLimiter) sweep(now time.Time) {
	if l.cfg.TTL <= 0 {
		return
	}
	if !l.nextSweep.IsZero() && now.Before(l.nextSweep) {
		return
	}

	every := time.Minute
	if half := l.cfg.TTL / 2; half > every {
		every = half
	}
	l.nextSweep = now.Add(every)

	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.cfg.TTL {
			delete(l.buckets, k)
		}
	}
}
