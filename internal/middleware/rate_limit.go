package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/blog-api/pkg/apperror"
	"github.com/d60-Lab/blog-api/pkg/logger"
	"github.com/d60-Lab/blog-api/pkg/response"
)

// RateLimit 全局令牌桶限流，rps <= 0 时不限流
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}

	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			logger.Warn("rate limit exceeded",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path))
			response.Error(c, apperror.RateLimited("too many requests, please try again later"))
			return
		}
		c.Next()
	}
}
