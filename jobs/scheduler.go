package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Default schedules, standard five-field cron syntax.
const (
	DefaultSweepSchedule     = "*/30 * * * *"
	DefaultRecurringSchedule = "0 0 * * *"
)

// Scheduler runs jobs on cron schedules. A run that is still going when its
// next tick fires is skipped.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	timeout time.Duration
	logger  *slog.Logger
}

func NewScheduler(ctx context.Context, timeout time.Duration, logger *slog.Logger) *Scheduler {
	l := cronLogger{logger: logger.With("component", "scheduler")}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l))),
		ctx:     ctx,
		timeout: timeout,
		logger:  l.logger,
	}
}

// Add registers fn under name on the given schedule.
func (s *Scheduler) Add(name, schedule string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
		start := time.Now()
		if err := fn(ctx); err != nil {
			s.logger.Error("job failed", "job", name, "error", err)
			return
		}
		s.logger.Debug("job finished", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("scheduling %s (%q): %w", name, schedule, err)
	}
	s.logger.Info("job scheduled", "job", name, "schedule", schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running ones or ctx, whichever is first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
