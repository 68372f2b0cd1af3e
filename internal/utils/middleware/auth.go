package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/passiton/server/internal/utils/requestctx"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// UserIDHeader carries the caller when a trusted gateway has already authenticated it.
	UserIDHeader = "X-User-ID"
	// UserIDKey is the context key for user ID.
	UserIDKey = "user_id"
)

// TokenVerifier validates a bearer token and returns the user it was issued to.
type TokenVerifier interface {
	VerifyToken(token string) (uuid.UUID, error)
}

// Auth returns a middleware that resolves the caller from a bearer token.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			abortWithError(c, http.StatusUnauthorized, KindUnauthenticated, "Authorization header required")
			return
		}

		userID, err := verifier.VerifyToken(token)
		if err != nil || userID == uuid.Nil {
			abortWithError(c, http.StatusUnauthorized, KindUnauthenticated, "Invalid or expired token")
			return
		}

		setUserID(c, userID)
		c.Next()
	}
}

// HeaderIdentity returns a middleware that resolves the caller from X-User-ID.
func HeaderIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, KindUnauthenticated, UserIDHeader+" header required")
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			abortWithError(c, http.StatusUnauthorized, KindUnauthenticated, "Invalid "+UserIDHeader+" header")
			return
		}

		setUserID(c, userID)
		c.Next()
	}
}

func setUserID(c *gin.Context, userID uuid.UUID) {
	c.Set(UserIDKey, userID)
	c.Request = c.Request.WithContext(requestctx.WithUserID(c.Request.Context(), userID))
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
}

// GetUserID returns the user ID from context.
// Returns uuid.Nil if not found.
func GetUserID(c *gin.Context) uuid.UUID {
	if val, exists := c.Get(UserIDKey); exists {
		if userID, ok := val.(uuid.UUID); ok {
			return userID
		}
	}
	return uuid.Nil
}
