package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionsengine/pkg/config"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware 进程内令牌桶限流，所有客户端共享同一个桶
func RateLimitMiddleware(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.QPS), cfg.Burst)

	return func(c *gin.Context) {
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
		if !limiter.Allow() {
			retry := math.Ceil(1 / cfg.QPS)
			c.Header("Retry-After", strconv.Itoa(int(retry)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":  "RATE_LIMITED",
				"error": "too many requests",
			})
			return
		}
		c.Next()
	}
}
