package auth

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter applies an independent token bucket per key (user email or IP).
// Buckets live in instance memory; they reset when the instance is recycled.
type Limiter struct {
	mu      sync.Mutex
	every   rate.Limit
	burst   int
	buckets map[string]*rate.Limiter
}

// NewLimiter allows n events per window per key.
func NewLimiter(n int, window time.Duration) *Limiter {
	return &Limiter{
		every:   rate.Every(window / time.Duration(n)),
		burst:   n,
		buckets: map[string]*rate.Limiter{},
	}
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.every, l.burst)
		l.buckets[key] = b
	}
	return b
}

// Allow consumes one event for key or returns ErrRateLimited.
func (l *Limiter) Allow(key string) error {
	return l.AllowAt(key, time.Now())
}

func (l *Limiter) AllowAt(key string, now time.Time) error {
	if key == "" {
		key = "unknown"
	}
	if !l.bucket(key).AllowN(now, 1) {
		return ErrRateLimited
	}
	return nil
}
