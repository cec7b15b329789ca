// Package scheduler runs the periodic Lodestone character refresh.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron      *cron.Cron
	spec      string
	refresher *Refresher
	logger    *log.Logger
}

func New(spec string, refresher *Refresher, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.PrintfLogger(logger)),
			cron.SkipIfStillRunning(cron.PrintfLogger(logger)),
		)),
		spec:      spec,
		refresher: refresher,
		logger:    logger,
	}
}

// Start registers the refresh job, starts the cron loop and triggers one
// pass immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.logger.Printf("[Scheduler] started spec=%q next=%s", s.spec, s.cron.Entry(id).Next.Format("2006-01-02T15:04:05Z07:00"))

	go s.run(ctx)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Printf("[Scheduler] stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.refresher.RunOnce(ctx); err != nil {
		s.logger.Printf("[Scheduler] refresh error: %v", err)
	}
}
