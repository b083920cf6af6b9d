package scheduler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pressrun/pressrun/internal/domain"
)

// Status is the snapshot served by the /stats endpoint.
type Status struct {
	Running   bool             `json:"running"`
	RunsTotal int              `json:"runs_total"`
	StartedAt time.Time        `json:"started_at"`
	LastError string           `json:"last_error,omitempty"`
	LastRun   *domain.RunStats `json:"last_run,omitempty"`
}

// Snapshot returns the current scheduler status.
func (s *Service) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Running:   s.running,
		RunsTotal: s.runsTotal,
		StartedAt: s.startedAt,
		LastError: s.lastErr,
		LastRun:   s.lastStats,
	}
}

// StatusRouter builds the gin router for the status server.
func (s *Service) StatusRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Snapshot())
	})

	return router
}
