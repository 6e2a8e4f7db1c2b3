// Package scheduler drives the periodic housekeeping pass. Stages run
// strictly in registration order inside a single goroutine, so two passes
// can never overlap and reconciliation always precedes expiry and purge.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Stage is one named housekeeping step.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler runs registered stages on a fixed interval.
type Scheduler struct {
	log      *slog.Logger
	interval time.Duration
	stages   []Stage
	trigger  chan struct{}
}

// New creates a scheduler that runs the stages every interval, in order.
func New(log *slog.Logger, interval time.Duration, stages ...Stage) *Scheduler {
	return &Scheduler{
		log:      log.With("component", "scheduler"),
		interval: interval,
		stages:   stages,
		trigger:  make(chan struct{}, 1),
	}
}

// TriggerNow requests an extra pass as soon as the current one (if any)
// finishes. Multiple calls before that pass coalesce into one.
func (s *Scheduler) TriggerNow() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run executes a pass immediately, then on every tick, until ctx is
// canceled. A pass in flight when shutdown arrives runs to completion;
// only the loop observes the cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.InfoContext(ctx, "housekeeping scheduler started",
		slog.Duration("interval", s.interval),
		slog.Int("stages", len(s.stages)),
	)

	s.runPass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("housekeeping scheduler stopped")
			return nil
		case <-ticker.C:
			s.runPass(ctx)
		case <-s.trigger:
			s.runPass(ctx)
		}
	}
}

// runPass executes every stage once. A stage failure is logged and the
// remaining stages still run; one broken feed must not stop expiry or purge.
func (s *Scheduler) runPass(ctx context.Context) {
	// Stages finish their writes even when shutdown arrived mid-pass.
	passCtx := context.WithoutCancel(ctx)

	start := time.Now()
	failed := 0

	for _, stage := range s.stages {
		stageStart := time.Now()
		if err := stage.Run(passCtx); err != nil {
			failed++
			s.log.ErrorContext(ctx, "housekeeping stage failed",
				slog.String("stage", stage.Name),
				slog.Any("error", err),
			)
			continue
		}
		s.log.DebugContext(ctx, "housekeeping stage finished",
			slog.String("stage", stage.Name),
			slog.Duration("duration", time.Since(stageStart)),
		)
	}

	s.log.InfoContext(ctx, "housekeeping pass finished",
		slog.Duration("duration", time.Since(start)),
		slog.Int("stages", len(s.stages)),
		slog.Int("failed", failed),
	)
}
