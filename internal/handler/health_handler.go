package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PingFunc checks a backing dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler serves liveness and metrics endpoints.
type HealthHandler struct {
	service string
	ping    PingFunc
}

// NewHealthHandler creates a HealthHandler. A nil ping reports healthy unconditionally.
func NewHealthHandler(service string, ping PingFunc) *HealthHandler {
	return &HealthHandler{service: service, ping: ping}
}

// RegisterRoutes registers /health and /metrics.
func (h *HealthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": h.service,
				"error":   err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}
