package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const rateLimitMessage = "Too many requests, try later."

// limitKey buckets by client IP. The limiter runs ahead of authentication,
// so no user id is available yet.
func limitKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func windowSeconds(window time.Duration) int64 {
	if s := int64(window.Seconds()); s > 0 {
		return s
	}
	return 1
}

// windowBudget is the number of requests a key may make per window:
// floor(rps*window) + burst.
func windowBudget(rps float64, burst int, window time.Duration) int64 {
	return int64(rps*float64(windowSeconds(window))) + int64(burst)
}

func tooManyRequests(c *gin.Context, retryAfter string) {
	c.Header("Retry-After", retryAfter)
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": rateLimitMessage})
}

// RateLimitMiddleware returns a Gin middleware enforcing an in-memory
// token-bucket per key with the same per-window budget as the Redis limiter:
// the bucket holds the whole budget and refills over one window.
// Preflight requests are never limited.
func RateLimitMiddleware(rps float64, burst int, window time.Duration) gin.HandlerFunc {
	budget := windowBudget(rps, burst, window)
	refill := rate.Limit(float64(budget) / float64(windowSeconds(window)))
	var store sync.Map // key -> *rate.Limiter
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		v, _ := store.LoadOrStore(limitKey(c), rate.NewLimiter(refill, int(budget)))
		if !v.(*rate.Limiter).Allow() {
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			tooManyRequests(c, "1")
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
