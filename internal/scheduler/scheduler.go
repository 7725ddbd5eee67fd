package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"scorebook/pipeline/internal/config"
	"scorebook/pipeline/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ErrRunInProgress is returned when a trigger fires while a previous
// run is still executing.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// RunFunc executes one full reconciliation run. The trigger names the
// cause ("initial", "nightly", "refresh") for logs and metrics.
type RunFunc func(ctx context.Context, trigger string) error

// Scheduler manages background pipeline runs:
// - Nightly full rebuild during off-hours
// - Periodic feed refresh during the day
// - Overlap-safe triggering (a slow run is never stacked on)
type Scheduler struct {
	cfg      *config.Config
	run      RunFunc
	cron     *cron.Cron
	ticker   *time.Ticker
	stopChan chan struct{}
	running  atomic.Bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, run RunFunc) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		run:      run,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	// Setup nightly rebuild cron job
	if _, err := s.cron.AddFunc(s.cfg.NightlyRebuildCron, func() {
		log.Info().Msg("Running nightly rebuild...")
		if err := s.RunNow(ctx, "nightly"); err != nil && err != ErrRunInProgress {
			log.Error().Err(err).Msg("Nightly rebuild failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule nightly rebuild: %w", err)
	}

	// Start cron scheduler
	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.NightlyRebuildCron).
		Msg("Nightly rebuild scheduled")

	// Start refresh ticker so the day's scores and fixtures stay current
	s.ticker = time.NewTicker(s.cfg.RefreshInterval)
	log.Info().
		Dur("interval", s.cfg.RefreshInterval).
		Msg("Feed refresh polling started")

	// Start polling goroutine
	go s.pollRefresh(ctx)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	if s.ticker != nil {
		s.ticker.Stop()
	}

	close(s.stopChan)
	log.Info().Msg("Scheduler stopped")
}

// RunNow executes one guarded pipeline run. Concurrent triggers are
// rejected with ErrRunInProgress rather than queued, so a slow rebuild
// cannot pile up refresh ticks behind it.
func (s *Scheduler) RunNow(ctx context.Context, trigger string) error {
	if !s.running.CompareAndSwap(false, true) {
		log.Warn().Str("trigger", trigger).Msg("Skipping trigger, run already in progress")
		return ErrRunInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	err := s.run(ctx, trigger)
	duration := time.Since(start)

	if err != nil {
		metrics.RecordPipelineRun(trigger, "error", duration.Seconds())
		return err
	}

	metrics.RecordPipelineRun(trigger, "success", duration.Seconds())
	log.Info().
		Str("trigger", trigger).
		Dur("duration", duration).
		Msg("Pipeline run finished")

	return nil
}

// pollRefresh re-runs the pipeline on every tick so in-progress games
// and newly published fixtures flow into the dataset during the day
func (s *Scheduler) pollRefresh(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping feed refresh polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping feed refresh polling")
			return
		case <-s.ticker.C:
			if err := s.RunNow(ctx, "refresh"); err != nil && err != ErrRunInProgress {
				log.Error().Err(err).Msg("Feed refresh failed")
			}
		}
	}
}
