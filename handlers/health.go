package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	started time.Time
	checks  map[string]Check
}

func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{started: time.Now(), checks: checks}
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Server is up and running"})
	})
	r.GET("/ready", h.Ready)
}

// Ready answers 200 only when every dependency check passes.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ready := true
	deps := map[string]bool{}
	for name, check := range h.checks {
		ok := check(ctx) == nil
		deps[name] = ok
		ready = ready && ok
	}
	uptime := time.Since(h.started).Round(time.Second).String()
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
}
