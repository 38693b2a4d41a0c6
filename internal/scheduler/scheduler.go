package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// PassFunc runs one synchronization pass
type PassFunc func(ctx context.Context)

// Scheduler invokes the pass on a cron schedule. Each tick is a fresh
// pass with no shared state; a tick that fires while a pass is still
// running is skipped, not queued.
type Scheduler struct {
	cron *cron.Cron
	spec string
	pass PassFunc
	busy atomic.Bool
}

// New creates a scheduler for the given cron expression
func New(spec string, pass PassFunc) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		spec: spec,
		pass: pass,
	}
}

// Start runs one pass immediately, then on every schedule tick, and
// blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("add sync job: %w", err)
	}

	s.tick(ctx)

	s.cron.Start()
	log.Infof("Scheduler started (spec: %q)", s.spec)

	<-ctx.Done()
	return nil
}

// Stop halts the schedule and waits for a running pass to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		log.Warn("Previous pass still running, skipping tick")
		return
	}
	defer s.busy.Store(false)

	s.pass(ctx)
}
