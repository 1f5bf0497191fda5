package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "promptly"
	serviceVersion = "1.0.0"
)

// HealthChecker probes the generation service
type HealthChecker interface {
	CheckHealth(ctx context.Context) bool
}

// Pinger is an optional infrastructure dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checker HealthChecker
	deps    map[string]Pinger
	onProbe func(healthy bool)
}

// NewHealthHandler creates a new health handler. deps maps a dependency name
// to its pinger; nil entries are reported as not configured.
func NewHealthHandler(checker HealthChecker, deps map[string]Pinger, onProbe func(bool)) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		deps:    deps,
		onProbe: onProbe,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// Health returns basic health status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// DeepHealth returns health status with dependency checks
func (h *HealthHandler) DeepHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := make(map[string]string)
	allHealthy := true

	for name, p := range h.deps {
		if p == nil {
			deps[name] = "not configured"
			continue
		}
		if err := p.Ping(ctx); err != nil {
			deps[name] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			deps[name] = "healthy"
		}
	}

	// Generation service
	healthy := h.checker.CheckHealth(ctx)
	if h.onProbe != nil {
		h.onProbe(healthy)
	}
	if healthy {
		deps["ai_service"] = "healthy"
	} else {
		deps["ai_service"] = "unhealthy"
		allHealthy = false
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:       status,
		Service:      serviceName,
		Version:      serviceVersion,
		Dependencies: deps,
	})
}
