package http

import (
	"net/http"
	"time"

	"microforge/pulse/internal/health"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	aggregator *health.Aggregator
	started    time.Time
}

func NewHealthController(aggregator *health.Aggregator) *HealthController {
	return &HealthController{
		aggregator: aggregator,
		started:    time.Now(),
	}
}

// Live reports this service's own liveness.
func (h *HealthController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "pulse",
		"uptime":    time.Since(h.started).String(),
		"timestamp": time.Now(),
	})
}

// Services returns the current health snapshot: the cycle summary plus the
// full per-service probe results.
func (h *HealthController) Services(c *gin.Context) {
	snapshot := h.aggregator.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"summary":  snapshot.Summary,
		"services": snapshot.Results,
	})
}

// Refresh triggers a manual probe cycle. If a cycle is already in flight the
// request is ignored and the current snapshot is returned unchanged.
func (h *HealthController) Refresh(c *gin.Context) {
	refreshed := h.aggregator.Refresh(c.Request.Context())
	snapshot := h.aggregator.Snapshot()

	message := "health cycle completed"
	if !refreshed {
		message = "a health cycle is already running"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"refreshed": refreshed,
		"message":   message,
		"summary":   snapshot.Summary,
		"services":  snapshot.Results,
	})
}
