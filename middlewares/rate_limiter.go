package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/practice-app/utils"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key, the client IP unless keyed
// otherwise. Idle buckets are pruned at most once per prune interval.
type RateLimiter struct {
	limit      rate.Limit
	burst      int
	ttl        time.Duration
	pruneEvery time.Duration
	lastPrune  time.Time
	now        func() time.Time
	key        func(c *gin.Context) string
	message    string
	limiters   map[string]*visitor
	mu         sync.Mutex
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perSecond int, burst int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = perSecond
	}
	return newRateLimiter(rate.Limit(perSecond), burst, clientIP, "too many requests")
}

func newRateLimiter(limit rate.Limit, burst int, key func(c *gin.Context) string, message string) *RateLimiter {
	return &RateLimiter{
		limit:      limit,
		burst:      burst,
		ttl:        10 * time.Minute,
		pruneEvery: time.Minute,
		lastPrune:  time.Now(),
		now:        time.Now,
		key:        key,
		message:    message,
		limiters:   make(map[string]*visitor),
	}
}

func clientIP(c *gin.Context) string {
	return c.ClientIP()
}

// userOrIP keys authenticated callers by user id so callers behind one
// address do not share a bucket.
func userOrIP(c *gin.Context) string {
	if id, ok := c.Get(ContextUserID); ok {
		if uid, ok := id.(uint); ok && uid != 0 {
			return fmt.Sprintf("user:%d", uid)
		}
	}
	return "ip:" + c.ClientIP()
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastPrune) >= rl.pruneEvery {
		rl.prune(now)
	}

	v, exists := rl.limiters[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// prune drops buckets idle for longer than ttl. Callers hold mu.
func (rl *RateLimiter) prune(now time.Time) {
	for key, v := range rl.limiters {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.limiters, key)
		}
	}
	rl.lastPrune = now
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.get(rl.key(c)).Allow() {
			utils.RespondError(c, http.StatusTooManyRequests, errors.New(rl.message))
			c.Abort()
			return
		}
		c.Next()
	}
}

// NewStrictRateLimiter guards expensive endpoints: 5 requests per minute for
// each authenticated user, or each IP when no user is known.
func NewStrictRateLimiter() gin.HandlerFunc {
	return newRateLimiter(rate.Every(time.Minute/5), 5, userOrIP, "too many requests, please wait a moment").RateLimit()
}
