package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"SpotSentinel/internal/calendar"
	"SpotSentinel/internal/collector"
	"SpotSentinel/internal/model"
	"SpotSentinel/internal/notifier"
	"SpotSentinel/internal/recorder"
)

const sendRetries = 3

// Scheduler manages the cron tasks and chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Formatter notifier.Formatter
	Logger    *zap.Logger
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. Cron expressions are evaluated in the
// collector's timezone.
func NewScheduler(ctx context.Context, col *collector.Collector, n notifier.Notifier, rec recorder.Recorder, f notifier.Formatter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(col.Location)),
		Collector: col,
		Notifier:  n,
		Recorder:  rec,
		Formatter: f,
		Logger:    logger,
		Ctx:       ctx,
	}
}

// RegisterAll registers the same-day and day-ahead report tasks.
func (s *Scheduler) RegisterAll(dailyCron, tomorrowCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, func() { s.runTask("today", 0) }); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if _, err := s.Cron.AddFunc(tomorrowCron, func() { s.runTask("tomorrow", 1) }); err != nil {
		return fmt.Errorf("register tomorrow task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Int("entries", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunNow executes the same-day task immediately.
func (s *Scheduler) RunNow() {
	s.runTask("today", 0)
}

func (s *Scheduler) runTask(name string, offset int) {
	s.Logger.Info("running task", zap.String("task", name))
	if _, err := s.Report(s.Ctx, offset); err != nil {
		s.Logger.Error("task failed", zap.String("task", name), zap.Error(err))
	}
}

// Report collects, records and sends the report for today shifted by offset days.
func (s *Scheduler) Report(ctx context.Context, offset int) (*model.DayReport, error) {
	day := calendar.Shift(s.Collector.Today(), offset)
	report, err := s.Collector.CollectDay(ctx, day)
	if err != nil {
		s.trySend(ctx, s.Formatter.FormatError(s.Collector.Region, day, err))
		return nil, err
	}

	if err := s.Recorder.RecordDay(report); err != nil {
		s.Logger.Error("record day", zap.Stringer("day", day), zap.Error(err))
	}
	s.trySend(ctx, s.Formatter.FormatDayReport(report))
	return report, nil
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	// Strip the "@botname" suffix Telegram adds in group chats.
	if i := strings.IndexByte(command, '@'); i > 0 {
		command = command[:i]
	}
	switch command {
	case "/today":
		s.Report(ctx, 0)
		return ""
	case "/tomorrow":
		s.Report(ctx, 1)
		return ""
	case "/last":
		day := s.Collector.Today()
		report, err := s.Recorder.LoadDay(s.Collector.Region, day.String())
		if err != nil {
			return fmt.Sprintf("No stored report for %s", day)
		}
		return s.Formatter.FormatDayReport(report)
	default:
		return "Available commands:\n• /today - prices for today\n• /tomorrow - day-ahead prices\n• /last - last stored report for today"
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text, sendRetries); err != nil {
		s.Logger.Error("send notification", zap.Error(err))
	}
}
