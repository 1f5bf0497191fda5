package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter decides whether a client may submit another request
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
	Window() time.Duration
}

// RateLimiter implements a simple in-process token bucket
type RateLimiter struct {
	mu           sync.Mutex
	tokens       map[string]int
	lastRefill   map[string]time.Time
	maxTokens    int
	refillRate   int           // tokens per refill
	refillPeriod time.Duration // how often to refill
	lastSweep    time.Time
}

// NewRateLimiter creates a new rate limiter
// maxTokens: maximum tokens per client
// refillRate: how many tokens to add per refill period
// refillPeriod: how often to refill tokens
func NewRateLimiter(maxTokens, refillRate int, refillPeriod time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:       make(map[string]int),
		lastRefill:   make(map[string]time.Time),
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		refillPeriod: refillPeriod,
	}
}

// Allow checks if a request should be allowed for the given key
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if rl.refillRate > 0 && now.Sub(rl.lastSweep) >= rl.refillPeriod {
		rl.sweep(now)
	}

	if _, exists := rl.tokens[key]; !exists {
		rl.tokens[key] = rl.maxTokens
		rl.lastRefill[key] = now
	}

	elapsed := now.Sub(rl.lastRefill[key])
	refills := int(elapsed / rl.refillPeriod)
	if refills > 0 {
		rl.tokens[key] += refills * rl.refillRate
		if rl.tokens[key] > rl.maxTokens {
			rl.tokens[key] = rl.maxTokens
		}
		rl.lastRefill[key] = now
	}

	if rl.tokens[key] > 0 {
		rl.tokens[key]--
		return true, rl.tokens[key], nil
	}
	return false, 0, nil
}

// sweep drops buckets that have been idle long enough to be full again,
// since a fresh bucket behaves the same. Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	periods := (rl.maxTokens + rl.refillRate - 1) / rl.refillRate
	idle := time.Duration(max(periods, 1)) * rl.refillPeriod
	for key, last := range rl.lastRefill {
		if now.Sub(last) >= idle {
			delete(rl.tokens, key)
			delete(rl.lastRefill, key)
		}
	}
	rl.lastSweep = now
}

// Limit returns the bucket size
func (rl *RateLimiter) Limit() int { return rl.maxTokens }

// Window returns the refill period
func (rl *RateLimiter) Window() time.Duration { return rl.refillPeriod }

// RedisRateLimiter is a fixed-window counter shared by every instance
// pointing at the same Redis.
type RedisRateLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	prefix string
}

// NewRedisRateLimiter creates a limiter allowing limit requests per window
func NewRedisRateLimiter(client redis.Cmdable, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "promptly:ratelimit:",
	}
}

// Allow increments the counter of the current window for key
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	slot := time.Now().UnixNano() / int64(rl.window)
	k := rl.prefix + key + ":" + strconv.FormatInt(slot, 10)

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	count := int(incr.Val())
	if count > rl.limit {
		return false, 0, nil
	}
	return true, rl.limit - count, nil
}

// Limit returns the requests allowed per window
func (rl *RedisRateLimiter) Limit() int { return rl.limit }

// Window returns the window length
func (rl *RedisRateLimiter) Window() time.Duration { return rl.window }

// RateLimitMiddleware creates a rate limiting middleware.
// Uses the subject from the auth middleware or falls back to the client IP.
// A failing limiter lets the request through.
func RateLimitMiddleware(rl Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if subject := GetSubject(c); subject != "" {
			key = "sub:" + subject
		}

		allowed, remaining, err := rl.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.Limit()))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": APIError{
					Code:       ErrCodeRateLimited,
					Message:    "Too many requests, please try again later",
					RetryAfter: int(rl.Window().Milliseconds()),
				},
			})
			return
		}

		c.Next()
	}
}
