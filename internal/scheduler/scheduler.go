// Package scheduler runs scrape cycles over the target list.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
	"github.com/JakeFAU/realtime-lead-scraper/internal/metrics"
	"github.com/JakeFAU/realtime-lead-scraper/internal/scrape"
)

// Default recurrence settings.
const (
	DefaultInitialDelay = 5 * time.Second
	DefaultInterval     = 6 * time.Hour
)

// Runner scrapes a single target.
type Runner interface {
	Run(ctx context.Context, target lead.Target) scrape.Result
}

// TargetSource yields the targets for the next cycle.
type TargetSource interface {
	All() []lead.Target
}

// CycleHook observes every scheduled cycle once it finishes.
type CycleHook interface {
	AfterCycle(ctx context.Context, report lead.CycleReport) error
}

// CycleHookFunc adapts a function to CycleHook.
type CycleHookFunc func(ctx context.Context, report lead.CycleReport) error

// AfterCycle implements CycleHook.
func (f CycleHookFunc) AfterCycle(ctx context.Context, report lead.CycleReport) error {
	return f(ctx, report)
}

// Config controls recurrence.
type Config struct {
	InitialDelay time.Duration
	Interval     time.Duration
}

// Scheduler drives scrape cycles.
type Scheduler struct {
	runner Runner
	store  lead.Store
	pacer  Pacer
	clock  lead.Clock
	cfg    Config
	hooks  []CycleHook
	logger *zap.Logger
}

// New constructs a Scheduler.
func New(
	runner Runner,
	store lead.Store,
	pacer Pacer,
	clock lead.Clock,
	cfg Config,
	logger *zap.Logger,
	hooks ...CycleHook,
) *Scheduler {
	if cfg.InitialDelay < 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		runner: runner,
		store:  store,
		pacer:  pacer,
		clock:  clock,
		cfg:    cfg,
		hooks:  hooks,
		logger: logger.Named("scheduler"),
	}
}

// RunCycle scrapes targets in order. Targets that require authentication are
// skipped without a fetch. A target counts as failed when it yields no leads
// or its leads cannot be stored; neither stops the cycle. The pacer runs
// between consecutive fetch attempts only. Cancelling ctx ends the cycle
// early with the counts gathered so far.
func (s *Scheduler) RunCycle(ctx context.Context, targets []lead.Target) lead.CycleReport {
	report := lead.CycleReport{StartedAt: s.clock.Now()}
	attempted := false

	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}
		if target.RequiresAuth {
			report.Skipped++
			metrics.ObserveTarget("skipped")
			s.logger.Debug("skipping target that requires auth",
				zap.String("url", target.URL),
				zap.String("source", target.SourceName),
			)
			continue
		}
		if attempted && s.pacer != nil {
			if err := s.pacer.Pause(ctx); err != nil {
				break
			}
		}
		attempted = true

		res := s.runner.Run(ctx, target)
		report.Found += len(res.Leads)
		if len(res.Leads) == 0 {
			report.Failed++
			metrics.ObserveTarget("failed")
			continue
		}

		added, err := s.store.BulkInsert(ctx, res.Leads)
		// A partial insert still counts the leads that landed.
		report.Scraped += added
		metrics.ObserveLeadsInserted(added)
		if err != nil {
			report.Failed++
			metrics.ObserveTarget("failed")
			s.logger.Error("store leads failed",
				zap.String("url", target.URL),
				zap.Int("leads", len(res.Leads)),
				zap.Int("added", added),
				zap.Error(err),
			)
			continue
		}
		report.Succeeded++
		metrics.ObserveTarget("success")
		s.logger.Info("target scraped",
			zap.String("url", target.URL),
			zap.Int("found", len(res.Leads)),
			zap.Int("added", added),
		)
	}

	report.FinishedAt = s.clock.Now()
	return report
}

// Run executes the first cycle after InitialDelay and then one cycle per
// Interval, measured from the start of the previous cycle. A cycle that
// overruns the interval is followed immediately by the next. Run returns
// when ctx is done.
func (s *Scheduler) Run(ctx context.Context, source TargetSource) {
	wait := s.cfg.InitialDelay
	s.logger.Info("scheduler started",
		zap.Duration("initial_delay", wait),
		zap.Duration("interval", s.cfg.Interval),
	)
	for {
		if ctx.Err() != nil {
			s.logger.Info("scheduler stopped")
			return
		}
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-s.clock.After(wait):
		}

		started := s.clock.Now()
		report := s.RunCycle(ctx, source.All())
		s.afterCycle(ctx, report)

		next := started.Add(s.cfg.Interval)
		wait = max(next.Sub(s.clock.Now()), 0)
	}
}

func (s *Scheduler) afterCycle(ctx context.Context, report lead.CycleReport) {
	total, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("count leads failed", zap.Error(err))
	}
	metrics.ObserveCycle(report.Duration(), total)
	s.logger.Info("scrape cycle complete",
		zap.Int("added", report.Scraped),
		zap.Int("found", report.Found),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Int("total_leads", total),
		zap.Duration("duration", report.Duration()),
	)
	if ctx.Err() != nil {
		return
	}
	for _, hook := range s.hooks {
		if err := hook.AfterCycle(ctx, report); err != nil {
			s.logger.Warn("cycle hook failed", zap.Error(err))
		}
	}
}
