package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phambaophuc/imgbatch/internal/models"
)

// StatsProvider exposes the live batch counters.
type StatsProvider interface {
	Snapshot() models.BatchSummary
}

// HealthChecker reports "healthy" or "unhealthy: <reason>".
type HealthChecker func() string

type StatusHandler struct {
	stats  StatsProvider
	checks map[string]HealthChecker
	logger *zap.Logger
}

func NewStatusHandler(stats StatsProvider, checks map[string]HealthChecker, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		stats:  stats,
		checks: checks,
		logger: logger,
	}
}

func (h *StatusHandler) HealthCheck(c *gin.Context) {
	summary := h.stats.Snapshot()
	health := models.HealthCheck{
		Status:    models.HealthHealthy,
		BatchID:   summary.BatchID,
		Completed: summary.Completed,
		Timestamp: time.Now(),
		Services:  make(map[string]string, len(h.checks)),
	}

	for name, check := range h.checks {
		status := check()
		health.Services[name] = status
		if strings.HasPrefix(status, "unhealthy") {
			health.Status = models.HealthDegraded
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *StatusHandler) GetStats(c *gin.Context) {
	summary := h.stats.Snapshot()

	failures := make(map[string]int, len(summary.FailuresByStage))
	for stage, n := range summary.FailuresByStage {
		failures[string(stage)] = n
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id":          summary.BatchID,
		"discovered":        summary.Discovered,
		"succeeded":         summary.Succeeded,
		"failed":            summary.Failed,
		"failures_by_stage": failures,
		"started_at":        summary.StartedAt,
		"elapsed":           summary.Elapsed.String(),
		"completed":         summary.Completed,
	})
}
