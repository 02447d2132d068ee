package server

import (
	"net/http"
	"sync"
	"time"

	"cce-cloud/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Fixed-window rate limiter
//
// Every /api route is capped per client IP over a fixed window (default
// 15 minutes / 100 requests). Counters reset when their window expires;
// a janitor prunes windows that have gone stale so the map stays bounded
// under address churn.
// -----------------------------------------------------------------------------

type rateWindow struct {
	count   int
	resetAt time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	window  time.Duration
	max     int
}

// -----------------------------------------------------------------------------

func newRateLimiter(cfg models.MRateLimitConfig) *rateLimiter {
	rl := &rateLimiter{
		windows: make(map[string]*rateWindow),
		window:  time.Duration(cfg.WindowMinutes) * time.Minute,
		max:     cfg.MaxRequests,
	}
	go rl.janitor()
	return rl
}

// -----------------------------------------------------------------------------

// Allow counts one request for ip and reports whether it is within the
// ceiling.
func (rl *rateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[ip]
	if !ok || now.After(w.resetAt) {
		rl.windows[ip] = &rateWindow{count: 1, resetAt: now.Add(rl.window)}
		return true
	}

	w.count++
	return w.count <= rl.max
}

// -----------------------------------------------------------------------------

func (rl *rateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}

// -----------------------------------------------------------------------------

// janitor drops expired windows once per window length.
func (rl *rateLimiter) janitor() {
	for range time.Tick(rl.window) {
		now := time.Now()
		rl.mu.Lock()
		for ip, w := range rl.windows {
			if now.After(w.resetAt) {
				delete(rl.windows, ip)
			}
		}
		rl.mu.Unlock()
	}
}
