package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TransWatcher/pkg/cache"
)

// Limiter decides whether one more request for key fits in the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// WindowLimiter allows at most limit requests per key in each fixed window.
// Counters live in a cache.Service, so a Redis-backed cache shares them across replicas.
type WindowLimiter struct {
	counters cache.Service
	name     string
	limit    int64
	window   time.Duration
}

func NewWindowLimiter(counters cache.Service, name string, limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{counters: counters, name: name, limit: int64(limit), window: window}
}

func (w *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := w.counters.Increment(ctx, cache.Key("ratelimit", w.name, key), w.window)
	if err != nil {
		return false, fmt.Errorf("ratelimit %s: %w", w.name, err)
	}
	return n <= w.limit, nil
}

type bucket struct {
	tokens float64
	last   time.Time
}

// TokenBucket is a per-key token bucket kept in process memory.
type TokenBucket struct {
	mu         sync.Mutex
	m          map[string]*bucket
	capacity   float64
	refillRate float64 // tokens per second
	now        func() time.Time
}

// NewTokenBucket allows bursts of capacity and refills capacity tokens per window.
func NewTokenBucket(capacity int, window time.Duration) *TokenBucket {
	return &TokenBucket{
		m:          make(map[string]*bucket),
		capacity:   float64(capacity),
		refillRate: float64(capacity) / window.Seconds(),
		now:        time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.refillRate
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, nil
	}
	return false, nil
}
