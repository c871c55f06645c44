// Package scheduler runs the periodic background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a named unit of background work. An empty schedule registers the
// job for on-demand runs only.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
	log     logrus.FieldLogger
}

// New builds a scheduler; timeout bounds every scheduled run.
func New(timeout time.Duration, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		jobs:    make([]Job, 0),
		timeout: timeout,
		log:     log.WithField("component", "scheduler"),
	}
}

func (s *Scheduler) Register(job Job) error {
	s.jobs = append(s.jobs, job)
	log := s.log.WithField("job", job.Name())

	schedule := job.Schedule()
	if schedule == "" {
		log.Info("Registered as on-demand job")
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.run(job) }); err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	log.WithField("schedule", schedule).Info("Job scheduled")
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := s.log.WithField("job", job.Name())
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		log.WithError(err).Error("Job failed")
		return
	}
	log.WithField("took", time.Since(start).String()).Debug("Job completed")
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("jobs", len(s.jobs)).Info("Scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// RunByName runs a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("job %q not registered", name)
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}
