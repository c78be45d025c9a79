package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"rewear-api/internal/ratelimit"
	"rewear-api/internal/transport/http/response"
)

type KeyFunc func(c *gin.Context) string

func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// UserOrIPKey keys authenticated routes by user id and falls back to the client address.
func UserOrIPKey(c *gin.Context) string {
	if user, ok := CurrentUser(c); ok {
		return "user:" + user.ID
	}
	return "ip:" + c.ClientIP()
}

// RateLimit rejects requests over the limiter's budget with 429. Limiter errors let the request through.
func RateLimit(limiter ratelimit.Limiter, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), key(c))
		if err != nil {
			log.Printf("rate limit check failed: %v", err)
			c.Next()
			return
		}
		if !allowed {
			response.Error(c, http.StatusTooManyRequests, response.CodeTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}
