// Package jobs runs scheduled maintenance tasks.
package jobs

import (
	"context"
	"time"

	"fixpoint/internal/limiter"
	"fixpoint/internal/middleware"
	"fixpoint/internal/service"

	"github.com/robfig/cron/v3"
)

// stalePendingAge is how long a request may sit in PENDING before it is
// cancelled automatically.
const stalePendingAge = 90 * 24 * time.Hour

// Scheduler owns the cron runner for background maintenance.
type Scheduler struct {
	cron       *cron.Cron
	limiter    *limiter.LoginLimiter
	requestSvc *service.RequestService
}

func NewScheduler(loginLimiter *limiter.LoginLimiter, requestSvc *service.RequestService) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		limiter:    loginLimiter,
		requestSvc: requestSvc,
	}
}

// Start registers the jobs and launches the cron runner.
func (s *Scheduler) Start() error {
	// Hourly: drop aged-out login failure entries.
	if _, err := s.cron.AddFunc("@hourly", s.limiter.Sweep); err != nil {
		return err
	}

	// Daily: cancel requests that never got approved.
	if _, err := s.cron.AddFunc("@daily", s.expireStaleRequests); err != nil {
		return err
	}

	s.cron.Start()
	middleware.Logger.Info("maintenance scheduler started")
	return nil
}

// Stop halts the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) expireStaleRequests() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	expired, err := s.requestSvc.ExpireStalePending(ctx, stalePendingAge)
	if err != nil {
		middleware.Logger.Error("stale request expiry run failed", "error", err.Error())
		return
	}
	if expired > 0 {
		middleware.Logger.Info("expired stale pending requests", "count", expired)
	}
}
