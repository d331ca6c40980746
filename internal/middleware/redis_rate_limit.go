package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cinematch/backend/internal/cache"
	"github.com/cinematch/backend/internal/errors"
	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware is a fixed-window limiter shared by every API
// instance. Without Redis it falls back to the in-memory token bucket.
func RedisRateLimitMiddleware(client *cache.RedisClient, name string, config RateLimitConfig) gin.HandlerFunc {
	if client == nil {
		return NewRateLimiter(config)
	}
	if config.KeyFunc == nil {
		config.KeyFunc = clientIPKey
	}

	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", name, config.KeyFunc(c))
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := client.IncrWindow(ctx, key, config.Window)
		if err != nil {
			// a broken limiter must not turn into an open door
			logger.Log.Error("Rate limit check failed, rejecting request",
				logger.WithIP(c.ClientIP()),
				zap.Error(err),
			)
			util.RespondWithAPIError(c, errors.ServiceUnavailable("rate limiter"))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		if count > int64(config.Limit) {
			retryAfter := int(config.Window.Seconds())
			if ttl, err := client.TTL(ctx, key); err == nil && ttl > 0 {
				retryAfter = int(ttl.Seconds()) + 1
			}
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(c.ClientIP()),
				zap.String("limiter", name),
				zap.Int64("current_requests", count),
			)
			rejectRateLimited(c, config.Limit, retryAfter)
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(config.Limit)-count, 10))
		c.Next()
	}
}
