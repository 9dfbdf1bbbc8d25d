package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per caller.
type RateLimiter struct {
	limiters sync.Map
	rps      rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing rps requests per second per caller.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{rps: rate.Limit(rps), burst: burst}
}

func (l *RateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rps, l.burst))
	return actual.(*rate.Limiter)
}

// Allow reports whether the caller identified by key may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

// RateLimitMiddleware rejects callers over their budget with 429. Callers are keyed by
// user id header, or by client IP when the header is absent. A nil limiter lets everything through.
func RateLimitMiddleware(l *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		if id := c.GetHeader(HeaderUserID); id != "" {
			key = "user:" + id
		}
		if !l.Allow(key) {
			c.Header("Retry-After", strconv.Itoa(1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
				"kind":  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
