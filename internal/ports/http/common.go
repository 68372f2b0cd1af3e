package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/passiton/server/internal/utils/middleware"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse represents a standard error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// requireCaller returns the resolved caller, or writes 401 and returns uuid.Nil.
func requireCaller(c *gin.Context) uuid.UUID {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		respondError(c, http.StatusUnauthorized, middleware.KindUnauthenticated, "Caller identity required")
		return uuid.Nil
	}
	return userID
}

// parseID reads a UUID path parameter, writing 400 on failure.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func respondError(c *gin.Context, statusCode int, kind, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Success: false,
		Error:   kind,
		Message: message,
	})
}

func respondSuccess(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Message: message})
}

func respondCreated(c *gin.Context, data any, message string) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data, Message: message})
}
