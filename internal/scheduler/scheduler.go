// Package scheduler runs periodic background jobs, currently the
// segment-history cache warmer.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/takumi-oka/market-log/pkg/logger"
)

// Job represents a scheduled job
// ⭐ SSOT: スケジュール作業のインターフェースはここだけ
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression
	// Examples: "0 7 * * *" (every day at 7 AM), "@every 12h"
	Schedule() string
}

// Scheduler manages scheduled jobs
// ⭐ SSOT: スケジュール管理はこのスケジューラだけ
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
}

// New creates a new scheduler
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: log,
	}
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	_, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
	}

	s.logger.WithFields(map[string]interface{}{
		"job":      job.Name(),
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// runJob executes one job with logging
func (s *Scheduler) runJob(job Job) {
	start := time.Now()
	log := s.logger.WithField("job", job.Name())
	log.Info("Job started")

	if err := job.Run(context.Background()); err != nil {
		log.WithError(err).Error("Job failed")
		return
	}

	log.WithField("duration", time.Since(start)).Info("Job completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}
