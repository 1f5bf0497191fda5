package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/promptly/client/internal/middleware"
	"github.com/promptly/client/internal/models"
	"go.uber.org/zap"
)

// ProviderSource reports which model providers the generation service can reach
type ProviderSource interface {
	ProviderStatus(ctx context.Context) (models.ProviderStatus, error)
}

// ProvidersHandler proxies the provider status of the generation service
type ProvidersHandler struct {
	source ProviderSource
	logger *zap.Logger
}

// NewProvidersHandler creates a new providers handler
func NewProvidersHandler(source ProviderSource, logger *zap.Logger) *ProvidersHandler {
	return &ProvidersHandler{source: source, logger: logger}
}

// Status returns the provider status
// @Summary Provider status of the generation service
// @Tags providers
// @Produce json
// @Success 200 {object} models.ProviderStatus
// @Failure 502 {object} middleware.ErrorResponse
// @Security Bearer
// @Router /providers [get]
func (h *ProvidersHandler) Status(c *gin.Context) {
	status, err := h.source.ProviderStatus(c.Request.Context())
	if err != nil {
		genErr := models.AsGenerationError(err)
		h.logger.Warn("provider status unavailable",
			zap.String("kind", string(genErr.Kind)),
			zap.String("message", genErr.Message),
		)
		middleware.AIServiceUnavailable(c, genErr.Message)
		return
	}
	c.JSON(http.StatusOK, status)
}
