package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Timeout giới hạn thời gian của request context; store calls sẽ bị cancel khi hết hạn
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
