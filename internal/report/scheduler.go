package report

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/metrics"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs jobs on standard 5-field cron expressions. A job that is
// still running when its next tick arrives is skipped for that tick.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	logger  zerolog.Logger
}

func NewScheduler(loc *time.Location, logger zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:     ctx,
		cancel:  cancel,
		timeout: 10 * time.Minute,
		logger:  logger.With().Str("component", "scheduler").Logger(),
	}
}

// Add registers job under name. Runs are logged and counted in job_runs_total.
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	s.logger.Info().Str("job", name).Str("schedule", spec).Msg("job scheduled")
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := job(ctx)
	metrics.JobRunsTotal.WithLabelValues(name, metrics.Result(err)).Inc()

	ev := s.logger.Info()
	if err != nil {
		ev = s.logger.Error().Err(err)
	}
	ev.Str("job", name).Dur("duration", time.Since(start)).Msg("job finished")
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}
