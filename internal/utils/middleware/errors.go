package middleware

import "github.com/gin-gonic/gin"

// Error kinds emitted by middleware, alongside the domain kinds the handlers emit.
const (
	KindUnauthenticated = "unauthenticated"
	KindRateLimited     = "rate_limited"
	KindInProgress      = "request_in_progress"
	KindInternal        = "internal_error"
)

func abortWithError(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   kind,
		"message": message,
	})
}
