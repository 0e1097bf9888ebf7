package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 2 * time.Minute

type staleFlagger interface {
	FlagStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type idempotencyCleaner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type webhookReplayer interface {
	ReplayFailed(ctx context.Context) (int, error)
}

// Jobs are the periodic maintenance tasks. Each one is safe to run
// concurrently with request traffic and with itself.
type Jobs struct {
	stale      staleFlagger
	idem       idempotencyCleaner
	webhooks   webhookReplayer
	logger     *slog.Logger
	staleAfter time.Duration
	staleLimit int
	now        func() time.Time
}

func NewJobs(stale staleFlagger, idem idempotencyCleaner, webhooks webhookReplayer, logger *slog.Logger, staleAfter time.Duration) *Jobs {
	return &Jobs{
		stale:      stale,
		idem:       idem,
		webhooks:   webhooks,
		logger:     logger,
		staleAfter: staleAfter,
		staleLimit: 500,
		now:        time.Now,
	}
}

func (j *Jobs) SweepStalePending() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.stale.FlagStale(ctx, j.now().Add(-j.staleAfter), j.staleLimit)
	if err != nil {
		j.logger.Error("stale pending sweep failed", "error", err)
		return
	}
	if n > 0 {
		j.logger.Warn("stale pending entries flagged", "count", n, "older_than", j.staleAfter)
	}
}

func (j *Jobs) CleanIdempotencyKeys() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.idem.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("idempotency cleanup failed", "error", err)
		return
	}
	j.logger.Info("idempotency keys cleaned", "deleted", n)
}

func (j *Jobs) ReplayWebhooks() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.webhooks.ReplayFailed(ctx)
	if err != nil {
		j.logger.Error("webhook replay failed", "error", err)
		return
	}
	if n > 0 {
		j.logger.Info("failed webhooks replayed", "applied", n)
	}
}

type Schedules struct {
	StaleSweep       string
	IdempotencyClean string
	WebhookReplay    string
}

// Scheduler runs Jobs on cron schedules.
type Scheduler struct {
	cron      *cron.Cron
	jobs      *Jobs
	logger    *slog.Logger
	schedules Schedules
}

func NewScheduler(jobs *Jobs, logger *slog.Logger, schedules Schedules) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	return &Scheduler{
		cron:      c,
		jobs:      jobs,
		logger:    logger,
		schedules: schedules,
	}
}

// Start registers every job with a non-empty schedule and starts the cron
// loop. An invalid schedule is an error so misconfiguration fails startup.
func (s *Scheduler) Start() error {
	entries := []struct {
		name     string
		schedule string
		fn       func()
	}{
		{"stale pending sweep", s.schedules.StaleSweep, s.jobs.SweepStalePending},
		{"idempotency cleanup", s.schedules.IdempotencyClean, s.jobs.CleanIdempotencyKeys},
		{"webhook replay", s.schedules.WebhookReplay, s.jobs.ReplayWebhooks},
	}

	for _, e := range entries {
		if e.schedule == "" {
			s.logger.Info("job disabled", "job", e.name)
			continue
		}
		if _, err := s.cron.AddFunc(e.schedule, e.fn); err != nil {
			return fmt.Errorf("Start: schedule %s %q: %w", e.name, e.schedule, err)
		}
		s.logger.Info("scheduled job", "job", e.name, "schedule", e.schedule)
	}

	s.cron.Start()
	return nil
}

// Stop stops scheduling and returns a context that is done once running
// jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
