package backup

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs automatic backups on a cron schedule and prunes old
// auto archives after each run.
type Scheduler struct {
	svc    *Service
	cron   *cron.Cron
	keep   int
	logger *slog.Logger
}

// NewScheduler creates a scheduler for the given cron spec (standard
// five-field syntax, e.g. "0 2 * * *" for 02:00 daily). keep bounds the
// retained auto backups.
func NewScheduler(svc *Service, spec string, keep int) (*Scheduler, error) {
	s := &Scheduler{
		svc:    svc,
		cron:   cron.New(),
		keep:   keep,
		logger: slog.Default(),
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("cron spec %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	if _, err := s.svc.Create(TypeAuto); err != nil {
		s.logger.Error("scheduled backup failed", "error", err)
		return
	}
	if _, err := s.svc.Prune(s.keep); err != nil {
		s.logger.Error("backup pruning failed", "error", err)
	}
}

// Start begins scheduling in a background goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels future runs and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
