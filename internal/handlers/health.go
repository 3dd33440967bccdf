package handlers

import (
	"net/http"
	"time"

	"nft-marketplace-api/internal/services"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check HTTP requests
type HealthHandler struct {
	health *services.HealthService
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(health *services.HealthService) *HealthHandler {
	return &HealthHandler{
		health: health,
	}
}

// GetHealth handles GET /health requests with full dependency detail
func (h *HealthHandler) GetHealth(c *gin.Context) {
	checks := h.health.GetDetailedHealth()
	status := h.health.OverallStatus()

	httpStatus := http.StatusOK
	if status == services.HealthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

// GetLiveness handles GET /health/live requests. The process serving the
// request is proof of liveness.
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// GetReadiness handles GET /health/ready requests. The feed degrades rather
// than fails when dependencies are down, so readiness only reports them.
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    h.health.OverallStatus(),
		"timestamp": time.Now().UTC(),
	})
}

// GetDatabaseHealth handles GET /health/db requests
func (h *HealthHandler) GetDatabaseHealth(c *gin.Context) {
	check := h.health.CheckDatabase()

	httpStatus := http.StatusOK
	if check.Status == services.HealthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, check)
}
