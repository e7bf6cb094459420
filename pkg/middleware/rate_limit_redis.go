package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/pkg/logger"
	"github.com/campusconecto/campusconecto/backend/api/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimitMiddleware provides a fixed-window Redis-backed limiter shared
// by every instance. A window admits floor(rps*window)+burst requests per key.
func RedisRateLimitMiddleware(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(rps, burst, window)
	}
	secs := windowSeconds(window)
	allowedPerWindow := windowBudget(rps, burst, window)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		bucket := time.Now().Unix() / secs
		redisKey := fmt.Sprintf("rl:%s:%d", limitKey(c), bucket)

		ctx := c.Request.Context()
		cnt, err := client.Incr(ctx, redisKey).Result()
		if err != nil {
			logger.Errorf("rate limit check failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Rate limit check failed"})
			return
		}
		if cnt == 1 {
			_ = client.Expire(ctx, redisKey, time.Duration(secs+1)*time.Second).Err()
		}
		if cnt > allowedPerWindow {
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			tooManyRequests(c, fmt.Sprintf("%d", secs))
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
