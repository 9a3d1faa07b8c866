package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/kiyogawa/solana-dex-bot/internal/model"
)

// Parser accepts standard five-field specs, an optional leading seconds
// field and descriptors such as "@every 1h" or "@daily".
var Parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Runner is the work driven by the scheduler.
type Runner interface {
	RunCycle(ctx context.Context) error
	DailySummary(ctx context.Context)
}

// Scheduler runs one trading cycle at a time on a cadence and the daily
// summary as a cron job.
type Scheduler struct {
	Cron        *cron.Cron
	runner      Runner
	cadence     cron.Schedule
	summarySpec string
	cooldown    time.Duration
	now         func() time.Time
}

// NewScheduler parses the cadence and summary specs.
func NewScheduler(runner Runner, cadence, summarySpec string, cooldown time.Duration) (*Scheduler, error) {
	sched, err := Parser.Parse(cadence)
	if err != nil {
		return nil, fmt.Errorf("parse cadence %q: %w", cadence, err)
	}
	if _, err := Parser.Parse(summarySpec); err != nil {
		return nil, fmt.Errorf("parse summary spec %q: %w", summarySpec, err)
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithParser(Parser)),
		runner:      runner,
		cadence:     sched,
		summarySpec: summarySpec,
		cooldown:    cooldown,
		now:         time.Now,
	}, nil
}

// Retryable reports whether a failed cycle may succeed on a later tick
// without operator action. Errors outside the cycle taxonomy are retried.
func Retryable(err error) bool {
	var ce *model.CycleError
	if errors.As(err, &ce) {
		return ce.Retryable()
	}
	return true
}

// Run executes a cycle immediately, then one per cadence tick until ctx is
// cancelled. A failed cycle is followed by the cooldown instead of the
// regular wait. Cycles never overlap.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.Cron.AddFunc(s.summarySpec, func() { s.runner.DailySummary(ctx) }); err != nil {
		return fmt.Errorf("register summary task: %w", err)
	}
	s.Cron.Start()
	log.Info().Msg("scheduler started")
	defer func() {
		<-s.Cron.Stop().Done()
		log.Info().Msg("scheduler stopped")
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		wait := s.cooldown
		if err := s.runner.RunCycle(ctx); err != nil {
			log.Error().Err(err).Bool("retryable", Retryable(err)).Dur("cooldown", s.cooldown).Msg("cycle failed")
		} else {
			now := s.now()
			wait = s.cadence.Next(now).Sub(now)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
