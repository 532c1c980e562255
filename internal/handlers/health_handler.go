package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/repository"
)

// HealthHandler exposes the health-check endpoint.
type HealthHandler struct {
	db         *gorm.DB
	jobs       repository.JobRepository
	staleAfter time.Duration
}

// NewHealthHandler constructs a HealthHandler. staleAfter is how long an
// active job may run before the health check reports "degraded" instead of
// "healthy".
func NewHealthHandler(db *gorm.DB, jobs repository.JobRepository, staleAfter time.Duration) *HealthHandler {
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}
	return &HealthHandler{db: db, jobs: jobs, staleAfter: staleAfter}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *gin.Context) {
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05Z")

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": timestamp,
		})
		return
	}

	status := "healthy"
	if active, err := h.jobs.FindActive(); err == nil && h.isStale(active) {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"database":  "connected",
		"timestamp": timestamp,
	})
}

func (h *HealthHandler) isStale(job *models.Job) bool {
	reference := job.CreatedAt
	if job.StartedAt != nil {
		reference = *job.StartedAt
	}
	return time.Since(reference) > h.staleAfter
}
