// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingopal/conversation-service/internal/api/dto"
	"github.com/lingopal/conversation-service/internal/core/cache"
	"github.com/lingopal/conversation-service/internal/core/docdb"
	"github.com/lingopal/conversation-service/internal/services/registry"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	cacheClient cache.Client
	docDBClient docdb.Client
	registry    *registry.Registry
}

// NewHealthHandler creates a new HealthHandler. The registry may be nil.
func NewHealthHandler(cacheClient cache.Client, docDBClient docdb.Client, reg *registry.Registry) *HealthHandler {
	return &HealthHandler{
		cacheClient: cacheClient,
		docDBClient: docDBClient,
		registry:    reg,
	}
}

// Health handles the /health endpoint.
// @Summary Health check
// @Description Returns the overall health status, component statuses and the number of live conversations
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service healthy"
// @Failure 503 {object} dto.HealthResponse "Service unhealthy"
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	components := map[string]string{
		"cache": "healthy",
		"docdb": "healthy",
	}
	healthy := true

	if err := h.cacheClient.Ping(ctx); err != nil {
		components["cache"] = "unhealthy"
		healthy = false
	}
	if err := h.docDBClient.Ping(ctx); err != nil {
		components["docdb"] = "unhealthy"
		healthy = false
	}

	resp := dto.HealthResponse{
		Status:     "healthy",
		Components: components,
	}
	if h.registry != nil {
		resp.LiveConnections = h.registry.Live()
	}

	statusCode := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, resp)
}

// Ready handles the /ready endpoint.
// @Summary Readiness check
// @Description Returns 200 if the service is ready to accept traffic
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Service ready"
// @Failure 503 {object} map[string]string "Service not ready"
// @Router /api/v1/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.cacheClient.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "cache unavailable",
		})
		return
	}

	if err := h.docDBClient.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "docdb unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Live handles the /live endpoint.
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "Service alive"
// @Router /api/v1/live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
