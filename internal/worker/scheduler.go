package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"spendlog/internal/log"
)

// Scheduler runs ExportAll on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	worker *ExportWorker
	logger *log.Logger
}

// NewScheduler registers the export job. schedule uses the standard five-field
// syntax or descriptors such as "@every 30m" and "@daily".
func NewScheduler(schedule string, loc *time.Location, w *ExportWorker, logger *log.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Discard()
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		worker: w,
		logger: logger.WithComponent(log.ComponentWorker),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid export schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	if err := s.worker.ExportAll(context.Background()); err != nil {
		s.logger.Error("Scheduled export failed", log.FieldError, err)
	}
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("Export scheduler started", "entries", len(s.cron.Entries()))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Export scheduler stopped")
	return nil
}

// Next reports when the export runs next; zero before Run.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
