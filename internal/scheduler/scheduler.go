package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/robfig/cron/v3"
	"github.com/valnet/valdesk-central/internal/clock"
	"github.com/valnet/valdesk-central/internal/config"
	obsmetrics "github.com/valnet/valdesk-central/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

const runLockKey = "valdesk:scheduler:run"

// Scheduler drives the recurring billing jobs: invoice generation,
// the overdue sweep and the debtor-flag recompute.
type Scheduler struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	cfg     Config
	billing *config.BillingConfigHolder
	locker  *Locker
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Cfg     Config
	Billing *config.BillingConfigHolder
	Locker  *Locker `optional:"true"`
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.Billing == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:      p.DB,
		log:     p.Log.Named("scheduler"),
		genID:   p.GenID,
		clock:   p.Clock,
		cfg:     p.Cfg.withDefaults(),
		billing: p.Billing,
		locker:  p.Locker,
	}, nil
}

type job struct {
	name      string
	batchSize int
	fn        func(context.Context) error
}

func (s *Scheduler) jobs() []job {
	return []job{
		{name: "generate_invoices", batchSize: s.cfg.BatchSize, fn: s.runGenerateInvoices},
		{name: "overdue_sweep", batchSize: s.cfg.BatchSize, fn: s.runOverdueSweep},
		{name: "debtor_flags", batchSize: s.cfg.BatchSize, fn: s.runDebtorFlags},
	}
}

// RunOnce executes all enabled jobs once. When a run lock is configured
// and another replica holds it, the whole run is deferred.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.locker != nil {
		token, acquired, err := s.locker.TryLock(ctx, runLockKey, s.cfg.RunLockTTL)
		if err != nil {
			return fmt.Errorf("run lock: %w", err)
		}
		if !acquired {
			for _, j := range s.jobs() {
				if s.cfg.isJobEnabled(j.name) {
					obsmetrics.Scheduler().IncBatchDeferred(j.name, obsmetrics.SchedulerBatchDeferredReasonRunLockHeld)
				}
			}
			s.log.Debug("scheduler.run.deferred", zap.String("reason", "run_lock_held"))
			return nil
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), runLockKey, token); err != nil {
				s.log.Warn("scheduler.run_lock.release_failed", zap.Error(err))
			}
		}()
	}

	var errs []error
	for _, j := range s.jobs() {
		if !s.cfg.isJobEnabled(j.name) {
			continue
		}
		if err := s.runJob(ctx, j.name, j.batchSize, s.cfg.JobTimeout, j.fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runJob wraps a job with its run context, timeout and metrics. Hitting
// the deadline is treated as a soft timeout: the job gives the batch
// back and the next tick picks it up.
func (s *Scheduler) runJob(parent context.Context, name string, batchSize int, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(ctx, run)
	}

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)
	start := time.Now()
	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))

	if owner {
		defer s.logJobFinish(ctx, run)
	}

	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		schedMetrics.IncJobTimeout(name)
		s.logger(ctx).Warn("scheduler.job.timeout",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
		)
		return nil
	}
	schedMetrics.IncJobError(name, err)
	s.logSchedulerError(ctx, run, "scheduler.job.failed", name, err)
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnceWithRetry re-runs a failed cycle a bounded number of times
// before giving up until the next tick.
func (s *Scheduler) RunOnceWithRetry(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRunAttempts; attempt++ {
		lastErr = s.RunOnce(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == s.cfg.MaxRunAttempts {
			break
		}
		s.log.Warn("scheduler.run.retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", s.cfg.RetryDelay),
			zap.Error(lastErr),
		)
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(s.cfg.RetryDelay):
		}
	}
	return lastErr
}

// RunForever ticks RunOnceWithRetry on the configured interval until the
// context is canceled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	s.log.Info("scheduler.loop.start", zap.Duration("interval", s.cfg.RunInterval))
	expected := time.Now().Add(s.cfg.RunInterval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler.loop.stop")
			return
		case now := <-ticker.C:
			obsmetrics.Scheduler().ObserveRunLoopLag(now.Sub(expected))
			expected = now.Add(s.cfg.RunInterval)
			if err := s.RunOnceWithRetry(ctx); err != nil {
				s.log.Error("scheduler.run.failed", zap.Error(err))
			}
		}
	}
}

// StartCron schedules RunOnceWithRetry by cron expression in the billing
// config's time zone. Returns the started cron so the caller can stop it.
func (s *Scheduler) StartCron(ctx context.Context, schedule string) (*cron.Cron, error) {
	billing := s.billing.Get()
	loc, err := time.LoadLocation(billing.GeneratorTimeZone)
	if err != nil {
		return nil, fmt.Errorf("load generator time zone %q: %w", billing.GeneratorTimeZone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(schedule, func() {
		if err := s.RunOnceWithRetry(ctx); err != nil {
			s.log.Error("scheduler.run.failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("parse generator schedule %q: %w", schedule, err)
	}

	s.log.Info("scheduler.cron.start",
		zap.String("schedule", schedule),
		zap.String("time_zone", billing.GeneratorTimeZone),
	)
	c.Start()
	return c, nil
}
