package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// InternalKeyHeader authenticates service-to-service calls from the booking service.
const InternalKeyHeader = "X-Internal-Key"

// InternalKey returns a middleware that checks X-Internal-Key against a bcrypt hash.
// An empty hash rejects every request.
func InternalKey(hash string) gin.HandlerFunc {
	hashed := []byte(hash)
	return func(c *gin.Context) {
		key := c.GetHeader(InternalKeyHeader)
		if key == "" || len(hashed) == 0 {
			abortWithError(c, http.StatusUnauthorized, KindUnauthenticated, InternalKeyHeader+" header required")
			return
		}
		if err := bcrypt.CompareHashAndPassword(hashed, []byte(key)); err != nil {
			abortWithError(c, http.StatusUnauthorized, KindUnauthenticated, "Invalid internal key")
			return
		}
		c.Next()
	}
}
