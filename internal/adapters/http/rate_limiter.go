package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ActionRateLimiter is a sliding-window limiter keyed by client token.
type ActionRateLimiter struct {
	mu       sync.Mutex
	history  map[string][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
	swept    time.Time
}

func NewActionRateLimiter(limit int, interval time.Duration) *ActionRateLimiter {
	return &ActionRateLimiter{
		history:  make(map[string][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *ActionRateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)
	if now.Sub(rl.swept) >= rl.interval {
		rl.sweep(windowStart)
		rl.swept = now
	}

	attempts := rl.history[key]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[key] = fresh
		return false
	}

	rl.history[key] = append(fresh, now)
	return true
}

// sweep forgets tokens with no attempt inside the window.
func (rl *ActionRateLimiter) sweep(windowStart time.Time) {
	for key, attempts := range rl.history {
		if len(attempts) == 0 || !attempts[len(attempts)-1].After(windowStart) {
			delete(rl.history, key)
		}
	}
}

// RateLimit rejects a client token over its budget with 429.
func RateLimit(rl *ActionRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetString("client_token")
		if !rl.Allow(token) {
			log.Warn().Str("module", "adapters.http").Str("sid", token).Str("path", c.FullPath()).Msg("rate limited")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
