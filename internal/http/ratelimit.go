package http

import (
	"sync"
	"time"

	"fintrack/internal/cache"
)

const (
	defaultRateLimit = 60
	rateWindow       = time.Minute
	// idle clients are forgotten on the next cache sweep
	clientIdleTTL = 10 * time.Minute
)

// rateLimiter is a fixed-window limiter keyed by client IP.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	start time.Time
	seen  time.Time
	count int
}

var _ cache.Cleaner = (*rateLimiter)(nil)

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		limit = defaultRateLimit
	}
	return &rateLimiter{limit: limit, windows: make(map[string]*window), now: time.Now}
}

// allow counts one request from ip. When the window's budget is spent it
// returns false and the time left until the window resets.
func (rl *rateLimiter) allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.start) >= rateWindow {
		rl.windows[ip] = &window{start: now, seen: now, count: 1}
		return true, 0
	}
	w.count++
	w.seen = now
	if w.count <= rl.limit {
		return true, 0
	}
	return false, rateWindow - now.Sub(w.start)
}

// CleanExpired forgets clients idle for longer than clientIdleTTL.
func (rl *rateLimiter) CleanExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-clientIdleTTL)
	removed := 0
	for ip, w := range rl.windows {
		if w.seen.Before(cutoff) {
			delete(rl.windows, ip)
			removed++
		}
	}
	return removed
}

// retryAfterSeconds renders a wait as a Retry-After value, at least 1.
func retryAfterSeconds(d time.Duration) int {
	if d < time.Second {
		return 1
	}
	return int(d.Round(time.Second) / time.Second)
}
