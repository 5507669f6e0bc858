package monitoring

import (
	"net/http"
	"sync/atomic"
	"time"

	"townhall/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// HealthChecker serves liveness and readiness probes. Readiness flips on once
// the town directory is wired and flips off during shutdown so load balancers
// drain cleanly.
type HealthChecker struct {
	towns     ports.TownsService
	ready     atomic.Bool
	startTime time.Time
}

func NewHealthChecker(towns ports.TownsService) *HealthChecker {
	return &HealthChecker{
		towns:     towns,
		startTime: time.Now(),
	}
}

// SetReady marks the service as ready to accept traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *HealthChecker) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"towns":          len(h.towns.ListTowns()),
	})
}

func (h *HealthChecker) HandleReady(c *gin.Context) {
	if !h.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
