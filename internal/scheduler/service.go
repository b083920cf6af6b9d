// Package scheduler runs the crawl pipeline on a cron schedule and exposes
// a small HTTP status surface for health checks and run inspection.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/internal/logger"
)

const serverShutdownTimeout = 10 * time.Second

// RunFunc executes one pipeline run and returns its statistics.
type RunFunc func(ctx context.Context) (*domain.RunStats, error)

// Config holds scheduler settings.
type Config struct {
	// Schedule is a standard 5-field cron expression.
	Schedule string
	// StatusAddress is the listen address for the status server; empty
	// disables it.
	StatusAddress string
	// RunOnStart triggers a run immediately when the scheduler starts.
	RunOnStart bool
}

// Service periodically executes a run and keeps the latest outcome for the
// status endpoints. Overlapping runs are skipped, not queued.
type Service struct {
	cfg    Config
	run    RunFunc
	log    logger.Interface
	cron   *cron.Cron
	server *http.Server

	mu        sync.RWMutex
	running   bool
	runsTotal int
	lastStats *domain.RunStats
	lastErr   string
	startedAt time.Time
}

// NewService creates a scheduler service around the given run function.
func NewService(cfg Config, run RunFunc, log logger.Interface) *Service {
	return &Service{
		cfg: cfg,
		run: run,
		log: log,
	}
}

// Start validates the schedule, registers the cron job, and brings up the
// status server. It returns once everything is running.
func (s *Service) Start(ctx context.Context) error {
	if _, err := cron.ParseStandard(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.cfg.Schedule, err)
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.RunNow(ctx)
	}); err != nil {
		return fmt.Errorf("failed to register cron job: %w", err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", "schedule", s.cfg.Schedule)

	if s.cfg.StatusAddress != "" {
		s.server = &http.Server{
			Addr:              s.cfg.StatusAddress,
			Handler:           s.StatusRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("status server failed", "error", err.Error())
			}
		}()
		s.log.Info("status server listening", "address", s.cfg.StatusAddress)
	}

	if s.cfg.RunOnStart {
		go s.RunNow(ctx)
	}

	return nil
}

// Stop halts the cron schedule and shuts down the status server. In-flight
// cron jobs are given until the context deadline to finish.
func (s *Service) Stop(ctx context.Context) error {
	if s.cron != nil {
		cronCtx := s.cron.Stop()
		select {
		case <-cronCtx.Done():
		case <-ctx.Done():
			s.log.Warn("timed out waiting for in-flight run")
		}
	}

	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop status server: %w", err)
		}
	}

	s.log.Info("scheduler stopped")
	return nil
}

// RunNow executes one run immediately. If a run is already in flight the
// call is skipped.
func (s *Service) RunNow(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("previous run still in flight, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	stats, err := s.run(ctx)

	s.mu.Lock()
	s.running = false
	s.runsTotal++
	s.lastStats = stats
	if err != nil {
		s.lastErr = err.Error()
		s.log.Error("scheduled run failed", "error", err.Error())
	} else {
		s.lastErr = ""
	}
	s.mu.Unlock()
}
