package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/promptly/client/internal/audit"
	"github.com/promptly/client/internal/middleware"
	"go.uber.org/zap"
)

const (
	defaultAttemptLimit = 20
	maxAttemptLimit     = 100
)

// AttemptsHandler lists the audit log
type AttemptsHandler struct {
	store  audit.Store
	logger *zap.Logger
}

// NewAttemptsHandler creates a new attempts handler
func NewAttemptsHandler(store audit.Store, logger *zap.Logger) *AttemptsHandler {
	return &AttemptsHandler{store: store, logger: logger}
}

// List returns the most recent attempts, newest first
func (h *AttemptsHandler) List(c *gin.Context) {
	limit := defaultAttemptLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			middleware.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAttemptLimit)
	}

	attempts, err := h.store.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list attempts", zap.Error(err))
		middleware.InternalError(c, "failed to list attempts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}
