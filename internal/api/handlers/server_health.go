package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ingestq.io/ingestq/internal/pkg/logger"
)

// Health status values.
const (
	HealthStatusOk       = "ok"
	HealthStatusDegraded = "degraded"
)

// Health is the body of the health probes.
type Health struct {
	Status string                 `json:"status"`
	Checks map[string]string      `json:"checks,omitempty"`
	Pools  map[string]interface{} `json:"pools,omitempty"`
}

// GetLiveness handles GET /health/live — liveness probe.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, Health{Status: HealthStatusOk})
}

// GetReadiness handles GET /health/ready — readiness probe.
func (s *Server) GetReadiness(c *gin.Context) {
	ctx := c.Request.Context()
	checks := make(map[string]string)
	allHealthy := true

	// Store check.
	if _, err := s.ingestion.Stats(ctx); err != nil {
		logger.Warn("Readiness store check failed", zap.Error(err))
		checks["store"] = "error"
		allHealthy = false
	} else {
		checks["store"] = "ok"
	}

	// Journal check, when enabled.
	if s.journal != nil {
		if err := s.journal.Ping(ctx); err != nil {
			logger.Warn("Readiness journal check failed", zap.Error(err))
			checks["journal"] = "error"
			allHealthy = false
		} else {
			checks["journal"] = "ok"
		}
	}

	status := HealthStatusOk
	httpStatus := http.StatusOK
	if !allHealthy {
		status = HealthStatusDegraded
		httpStatus = http.StatusServiceUnavailable
	}

	h := Health{
		Status: status,
		Checks: checks,
	}
	if s.pools != nil {
		h.Pools = s.pools.Metrics()
	}
	c.JSON(httpStatus, h)
}
