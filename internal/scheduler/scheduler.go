package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultInterval is used when a non-positive interval is configured.
const DefaultInterval = time.Hour

// Runner is one scheduled unit of work, typically a full collection and
// aggregation pass.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }

// Scheduler periodically invokes a Runner. A pass never overlaps the
// previous one.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Scheduler.
func New(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first pass runs immediately.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(s.runOnce)
	if err != nil {
		return err
	}

	s.logger.Info("scheduler started", "interval", s.interval.String())
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runOnce() {
	started := time.Now()
	s.logger.Info("scheduler: running collection job")

	if err := s.runner.Run(s.ctx); err != nil {
		s.logger.Error("scheduler: job failed", "error", err, "elapsed", time.Since(started).String())
		return
	}
	s.logger.Info("scheduler: completed collection job", "elapsed", time.Since(started).String())
}

// Stop cancels any in-flight pass and stops future jobs.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
