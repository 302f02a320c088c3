package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthHandler struct {
	logger           *zap.Logger
	startTime        time.Time
	apiKeyConfigured bool
}

func NewHealthHandler(logger *zap.Logger, apiKeyConfigured bool) *HealthHandler {
	return &HealthHandler{
		logger:           logger,
		startTime:        time.Now(),
		apiKeyConfigured: apiKeyConfigured,
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).String(),
	})
}

// Readiness fails while no Meteosource key is configured, since every
// search would then end in a request failure.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if !h.apiKeyConfigured {
		h.logger.Warn("Readiness check failed: meteosource API key not configured")
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Uptime: time.Since(h.startTime).String(),
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status: "ready",
		Uptime: time.Since(h.startTime).String(),
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	status := "ok"
	if !h.apiKeyConfigured {
		status = "degraded"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
