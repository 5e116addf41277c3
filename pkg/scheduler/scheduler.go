package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named maintenance task run on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Run      func()
}

// Scheduler runs the periodic maintenance jobs: sweeping expired
// authorization codes and refreshing token sets nearing expiry. Jobs are
// registered before Start and run until the context is canceled.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	jobs    []Job
	logger  *slog.Logger
	running bool
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: slog.Default().With("component", "scheduler"),
	}
}

// Add registers a job. The schedule uses standard cron syntax or the
// "@every <duration>" form. Registration after Start is an error.
func (s *Scheduler) Add(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("cannot add job %q: scheduler already started", job.Name)
	}

	name := job.Name
	run := job.Run
	if _, err := s.cron.AddFunc(job.Schedule, func() {
		s.logger.Debug("running scheduled job", "job", name)
		run()
	}); err != nil {
		return fmt.Errorf("invalid schedule %q for job %q: %w", job.Schedule, job.Name, err)
	}

	s.jobs = append(s.jobs, job)
	return nil
}

// Start launches the scheduler and stops it when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.cron.Start()
	s.running = true

	for _, job := range s.jobs {
		s.logger.Info("scheduled maintenance job", "job", job.Name, "schedule", job.Schedule)
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop halts the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// IsRunning reports whether the scheduler has been started and not yet
// stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the earliest upcoming job time, or nil when nothing is
// scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	for _, entry := range entries[1:] {
		if entry.Next.Before(next) {
			next = entry.Next
		}
	}
	return &next
}
