package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/response"
)

// RateLimiter is a Redis fixed-window limiter keyed by client IP, so the
// limit holds across server replicas.
type RateLimiter struct {
	rdb      *redis.Client
	limit    int
	interval time.Duration
	log      zerolog.Logger
}

// NewRateLimiter allows limit requests per interval per IP.
func NewRateLimiter(rdb *redis.Client, limit int, interval time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:      rdb,
		limit:    limit,
		interval: interval,
		log:      log.With().Str("component", "rate_limiter").Logger(),
	}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
// Redis failures let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		window := time.Now().UnixNano() / int64(rl.interval)
		key := config.CacheKey.LoginAttemptsKey(c.ClientIP(), window)

		pipe := rl.rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rl.interval)
		if _, err := pipe.Exec(ctx); err != nil {
			rl.log.Warn().Err(err).Msg("Rate limit check failed")
			c.Next()
			return
		}

		remaining := rl.limit - int(incr.Val())
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
		if remaining < 0 {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}
