package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "wealthplan/internal/errors"
)

// APIKeyMiddleware guards operational endpoints such as /metrics with a
// static X-API-Key. An empty configured key leaves the route open.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithAppError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or missing API key"))
			return
		}
		c.Next()
	}
}
