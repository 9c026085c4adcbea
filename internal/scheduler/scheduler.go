package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// CycleFunc runs one scan cycle. It should return quickly with an error when
// a cycle is already in flight; the scheduler logs and moves on.
type CycleFunc func(ctx context.Context) error

// Scheduler drives recurring scan cycles on a cron schedule. Overlapping
// firings are skipped rather than queued, matching the engine's
// no-interleaving rule.
type Scheduler struct {
	cron *cron.Cron
	spec string
	run  CycleFunc
}

// New builds a scheduler from a cron spec; descriptors like "@every 5m" are
// accepted.
func New(spec string, run CycleFunc) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		spec: spec,
		run:  run,
	}
}

// Start schedules cycles until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.run(ctx); err != nil {
			log.Warn().Err(err).Msg("scheduled cycle skipped")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Info().Str("schedule", s.spec).Msg("cycle scheduler started")

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	return nil
}
