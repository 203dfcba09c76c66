package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"subsonic-backend/config"
	"subsonic-backend/pkg/apperror"
	"subsonic-backend/pkg/logger"
	"subsonic-backend/pkg/redis"
	"subsonic-backend/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

const MsgTooManyRequests = "Demasiadas solicitudes, intenta más tarde"

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window; 0 disables the limiter
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix for Redis
	KeyPrefix string
}

// rateLimitEntry tracks request count for a key (in-memory fallback)
type rateLimitEntry struct {
	count   int
	resetAt time.Time
	mu      sync.Mutex
}

const memorySweepInterval = 5 * time.Minute

// MemoryStore is the fallback counter store when Redis is unavailable.
// Expired entries are swept inline from Hit, so no goroutine is needed.
type MemoryStore struct {
	entries sync.Map

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// Lua script for atomic increment with TTL on first set
// KEYS[1] = counter key
// ARGV[1] = TTL in seconds
// Returns: [current_count, ttl_remaining]
const rateLimitLuaScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

// Hit increments the counter for key and returns the new count and window end.
func (s *MemoryStore) Hit(key string, window time.Duration, now time.Time) (int, time.Time) {
	s.maybeSweep(now)

	entryI, _ := s.entries.LoadOrStore(key, &rateLimitEntry{
		resetAt: now.Add(window),
	})
	entry := entryI.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if now.After(entry.resetAt) {
		entry.count = 0
		entry.resetAt = now.Add(window)
	}
	entry.count++

	return entry.count, entry.resetAt
}

// Sweep drops entries whose window ended before now.
func (s *MemoryStore) Sweep(now time.Time) {
	s.entries.Range(func(key, value interface{}) bool {
		entry := value.(*rateLimitEntry)
		entry.mu.Lock()
		if now.After(entry.resetAt) {
			s.entries.Delete(key)
		}
		entry.mu.Unlock()
		return true
	})
}

func (s *MemoryStore) maybeSweep(now time.Time) {
	s.sweepMu.Lock()
	if s.lastSweep.IsZero() {
		s.lastSweep = now
	}
	due := now.Sub(s.lastSweep) >= memorySweepInterval
	if due {
		s.lastSweep = now
	}
	s.sweepMu.Unlock()

	if due {
		s.Sweep(now)
	}
}

// ContactRateLimitConfig builds the per-IP limit for the contact form.
func ContactRateLimitConfig(cfg *config.Config) RateLimitConfig {
	return RateLimitConfig{
		Limit:     cfg.RateLimitContactThreshold,
		Window:    time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
		KeyPrefix: "rl:contact:",
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimitMiddleware creates a rate limiting middleware with the given config.
// Uses Redis when available, falls back to in-memory when not. Redis errors
// never reject a request.
func RateLimitMiddleware(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	store := &MemoryStore{}

	return func(c *gin.Context) {
		fullKey := cfg.KeyPrefix + cfg.KeyFunc(c)
		now := time.Now()

		var (
			count   int
			resetAt time.Time
		)

		if redisClient := redis.Client(); redisClient != nil {
			var err error
			count, resetAt, err = checkRateLimitRedis(c.Request.Context(), redisClient, fullKey, cfg)
			if err != nil {
				logger.Log.Warn("Rate limit store unavailable, using memory", "error", err)
				count, resetAt = store.Hit(fullKey, cfg.Window, now)
			}
		} else {
			count, resetAt = store.Hit(fullKey, cfg.Window, now)
		}

		remaining := cfg.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

		if count > cfg.Limit {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			logRateLimitTriggered(c)

			_ = c.Error(apperror.TooManyRequests(MsgTooManyRequests))
			c.Abort()
			return
		}

		c.Next()
	}
}

// checkRateLimitRedis checks rate limit using Redis with atomic Lua script
func checkRateLimitRedis(ctx context.Context, client *goredis.Client, key string, cfg RateLimitConfig) (int, time.Time, error) {
	ttlSeconds := int(cfg.Window.Seconds())

	result, err := client.Eval(ctx, rateLimitLuaScript, []string{key}, ttlSeconds).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}

	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)

	return int(count), time.Now().Add(time.Duration(ttl) * time.Second), nil
}

func logRateLimitTriggered(c *gin.Context) {
	if sl := security.DefaultLogger(); sl != nil {
		sl.LogRateLimitTriggered(
			c.Request.Context(),
			c.ClientIP(),
			c.GetHeader("User-Agent"),
			c.GetString("RequestID"),
			c.FullPath(),
		)
	}
}
