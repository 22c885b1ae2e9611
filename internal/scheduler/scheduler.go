// Package scheduler runs recommendation jobs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrRunInProgress is returned by RunNow when the previous run has not finished.
var ErrRunInProgress = errors.New("a run is already in progress")

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron. Runs never overlap: a tick that fires while
// the job is still running is skipped.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	job      Job

	mu      sync.Mutex
	running bool
	runs    int
	lastErr error
	lastRun time.Time
}

// New validates spec (standard five-field cron or a descriptor such as
// "@every 6h") and returns a stopped scheduler.
func New(spec string, job Job) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("scheduler job is nil")
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cron.DefaultLogger)),
		schedule: schedule,
		spec:     spec,
		job:      job,
	}, nil
}

// Start registers the job and starts ticking. With runNow the first run
// starts immediately in the background.
func (s *Scheduler) Start(ctx context.Context, runNow bool) {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		s.tick(ctx)
	}))
	s.cron.Start()
	log.Printf("[SCHEDULER] Started, spec %q, next run %s", s.spec, s.Next().Format(time.RFC1123))

	if runNow {
		go s.tick(ctx)
	}
}

// Stop stops scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Printf("[SCHEDULER] Stopped after %d runs", s.Runs())
}

// RunNow runs the job synchronously.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if !s.begin() {
		return ErrRunInProgress
	}

	err := s.job(ctx)

	s.mu.Lock()
	s.running = false
	s.runs++
	s.lastErr = err
	s.lastRun = time.Now()
	s.mu.Unlock()
	return err
}

func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()
	err := s.RunNow(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		log.Printf("[SCHEDULER] Previous run still in progress, skipping")
	case err != nil:
		log.Printf("[SCHEDULER] Run failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
	default:
		log.Printf("[SCHEDULER] Run finished in %s", time.Since(start).Round(time.Millisecond))
	}
}

func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// Next returns when the job fires next.
func (s *Scheduler) Next() time.Time {
	return s.schedule.Next(time.Now())
}

// Runs returns how many runs have finished.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// LastResult returns the error and finish time of the last run.
func (s *Scheduler) LastResult() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}
