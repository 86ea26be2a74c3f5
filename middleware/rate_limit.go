package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nirajmohabey/habit-tracker/cache"
)

// RateLimit caps requests per client IP using a Redis counter. With no
// cache configured it passes everything through.
func RateLimit(c *cache.Cache, logger *zap.Logger, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		clientIP := ctx.ClientIP()
		key := fmt.Sprintf("rate_limit:%s", clientIP)

		count, err := c.IncrementCounter(key, window)
		if err != nil {
			if err != cache.ErrDisabled {
				logger.Error("rate_limit_error", zap.Error(err))
			}
			ctx.Next()
			return
		}

		ctx.Header("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		remaining := maxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		ctx.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > int64(maxRequests) {
			logger.Warn("rate_limit_exceeded",
				zap.String("ip", clientIP),
				zap.Int64("count", count),
			)
			ctx.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}
