package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/passiton/server/internal/domain/transaction"
	"go.uber.org/zap"
)

// ErrorHandler maps lifecycle errors to HTTP responses.
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{logger: logger}
}

// HandleTransactionError writes the response for a failed lifecycle call.
func (h *ErrorHandler) HandleTransactionError(c *gin.Context, err error) {
	var domainErr *transaction.Error
	if !errors.As(err, &domainErr) {
		h.logger.Error("transaction request failed",
			zap.Error(err),
			zap.String("path", c.FullPath()),
		)
		respondError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	kind := string(domainErr.Kind)
	switch domainErr.Kind {
	case transaction.KindNotFound:
		respondError(c, http.StatusNotFound, kind, domainErr.Message)
	case transaction.KindUnauthorized:
		respondError(c, http.StatusForbidden, kind, domainErr.Message)
	case transaction.KindValidation:
		respondError(c, http.StatusBadRequest, kind, domainErr.Message)
	case transaction.KindInvalidState:
		respondError(c, http.StatusConflict, kind, domainErr.Message)
	case transaction.KindConflict:
		c.Header("Retry-After", "1")
		respondError(c, http.StatusConflict, kind, domainErr.Message)
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
